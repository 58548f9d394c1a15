package utils

import (
	"os"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt cost for team join codes. Codes are short and low value, so the
// default cost is enough.
const joinCodeCost = bcrypt.DefaultCost

func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// HashJoinCode hashes a team join code for storage. Codes are never stored
// in clear text.
func HashJoinCode(code string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(code), joinCodeCost)
	return string(bytes), err
}

// CheckJoinCode reports whether the given code matches the stored hash.
func CheckJoinCode(code, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}
