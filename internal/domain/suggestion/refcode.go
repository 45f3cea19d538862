package suggestion

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/speps/go-hashids/v2"
)

// RefCodeGenerator produces short public reference codes for
// suggestions, so support conversations never need raw row ids.
type RefCodeGenerator struct {
	h *hashids.HashID
}

func NewRefCodeGenerator(salt string) (*RefCodeGenerator, error) {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = 8
	data.Alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("init hashids: %w", err)
	}
	return &RefCodeGenerator{h: h}, nil
}

// Generate encodes the submitter id with a random nonce. Collisions
// across submitters are impossible; collisions within one submitter
// need a repeated nonce in the same id space.
func (g *RefCodeGenerator) Generate(submitterID int64) (string, error) {
	nonce := rand.Int63n(1 << 31)
	code, err := g.h.EncodeInt64([]int64{submitterID, nonce})
	if err != nil {
		return "", fmt.Errorf("encode ref code: %w", err)
	}
	return "WI-" + strings.ToUpper(code), nil
}
