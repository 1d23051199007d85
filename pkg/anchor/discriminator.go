package anchor

import (
	"crypto/sha256"
	"fmt"
)

// DiscriminatorSize is the length of an Anchor discriminator
const DiscriminatorSize = 8

// GetDiscriminator returns the first 8 bytes of sha256("<namespace>:<name>").
// Instructions use the "global" namespace with the snake_case handler name,
// accounts use "account" with the struct name.
func GetDiscriminator(namespace string, name string) []byte {
	preimage := fmt.Sprintf("%s:%s", namespace, name)
	hash := sha256.Sum256([]byte(preimage))
	return hash[:DiscriminatorSize]
}

// HasDiscriminator reports whether data starts with the discriminator for namespace:name
func HasDiscriminator(data []byte, namespace string, name string) bool {
	if len(data) < DiscriminatorSize {
		return false
	}
	want := GetDiscriminator(namespace, name)
	for i := 0; i < DiscriminatorSize; i++ {
		if data[i] != want[i] {
			return false
		}
	}
	return true
}
