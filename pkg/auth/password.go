package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost is applied to newly produced hashes. Verification keeps
// working for hashes minted with older cost parameters, so raising the
// cost never locks out existing users.
const bcryptCost = bcrypt.DefaultCost

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
