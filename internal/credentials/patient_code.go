package credentials

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Word lists for pseudonymous patient codes. Real names are never stored, so
// the clinician can register a patient under a generated code instead.
var animals = []string{
	"arara", "baleia", "capivara", "coruja", "golfinho", "jabuti", "lontra", "lobo",
	"onca", "panda", "pinguim", "raposa", "sabia", "tamandua", "tucano", "urso",
	"zebra", "gato", "esquilo", "falcao", "foca", "girafa", "leao", "tigre",
}

var colors = []string{
	"azul", "verde", "roxo", "dourado", "prata", "laranja", "vermelho", "cinza",
	"coral", "lilas", "marrom", "turquesa",
}

const codeDigits = 100

// GeneratePatientCode returns a random code in the format "animal-color-NN"
func GeneratePatientCode() (string, error) {
	animal, err := randomElement(animals)
	if err != nil {
		return "", err
	}
	color, err := randomElement(colors)
	if err != nil {
		return "", err
	}
	n, err := rand.Int(rand.Reader, big.NewInt(codeDigits))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%02d", animal, color, n.Int64()), nil
}

// GenerateUniquePatientCode retries until taken reports the code as free
func GenerateUniquePatientCode(taken func(string) bool, attempts int) (string, error) {
	for i := 0; i < attempts; i++ {
		code, err := GeneratePatientCode()
		if err != nil {
			return "", err
		}
		if !taken(code) {
			return code, nil
		}
	}
	return "", fmt.Errorf("no free patient code after %d attempts", attempts)
}

// randomElement picks a random element from a string slice
func randomElement(slice []string) (string, error) {
	if len(slice) == 0 {
		return "", nil
	}

	num, err := rand.Int(rand.Reader, big.NewInt(int64(len(slice))))
	if err != nil {
		return "", err
	}

	return slice[num.Int64()], nil
}
