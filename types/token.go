package types

import "fmt"

type TokenKind uint8

const (
	// TokenSkip marks a block that was not proved, no artifact exists.
	TokenSkip TokenKind = iota
	// TokenReady marks a block whose artifact should be submitted.
	TokenReady
	// TokenEnd terminates a batch, nothing follows it.
	TokenEnd
)

// Token is carried over the submission channel. Any height, including 0 and MaxUint64, is a valid
// payload since the kind is explicit.
type Token struct {
	Kind   TokenKind
	Height uint64
}

func Skip(height uint64) Token  { return Token{Kind: TokenSkip, Height: height} }
func Ready(height uint64) Token { return Token{Kind: TokenReady, Height: height} }
func End() Token                { return Token{Kind: TokenEnd} }

func (t Token) String() string {
	switch t.Kind {
	case TokenSkip:
		return fmt.Sprintf("skip(%d)", t.Height)
	case TokenReady:
		return fmt.Sprintf("ready(%d)", t.Height)
	case TokenEnd:
		return "end"
	default:
		return "invalid"
	}
}
