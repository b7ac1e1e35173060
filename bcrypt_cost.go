//go:build !race

package uptask

func passwordHashCost() int {
	return BcryptCost
}
