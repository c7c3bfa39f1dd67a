package auth

import "golang.org/x/crypto/bcrypt"

// HashAdminKey hashes a plaintext admin key with the given cost. Used by
// deploy tooling to produce OPS_ADMIN_KEY_HASH.
func HashAdminKey(key string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CompareAdminKey verifies an admin key against its stored hash.
func CompareAdminKey(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
