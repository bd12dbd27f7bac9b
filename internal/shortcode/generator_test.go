package shortcode_test

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/SergeiKhy/link-shortener/internal/shortcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codePattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// fakeChecker считает занятыми заранее заданные коды и первые busy кандидатов
type fakeChecker struct {
	mu    sync.Mutex
	taken map[string]bool
	busy  int
	calls int
	err   error
}

func (f *fakeChecker) ExistsByShortCode(_ context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	if f.calls <= f.busy {
		return true, nil
	}
	return f.taken[code], nil
}

func TestGenerate_LengthAndAlphabet(t *testing.T) {
	gen := shortcode.NewGenerator(&fakeChecker{})

	for _, length := range []int{1, 2, 7, 8, 10, 15} {
		code, err := gen.Generate(context.Background(), length)
		require.NoError(t, err)
		assert.Len(t, code, length)
		assert.Regexp(t, codePattern, code)
	}
}

func TestGenerate_DefaultLength(t *testing.T) {
	gen := shortcode.NewGenerator(&fakeChecker{})

	code, err := gen.Generate(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, code, shortcode.DefaultLength)
}

func TestGenerate_RetriesOnCollision(t *testing.T) {
	checker := &fakeChecker{busy: 25}
	gen := shortcode.NewGenerator(checker)

	code, err := gen.Generate(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, code, 7)
	assert.Equal(t, 26, checker.calls)
}

func TestGenerate_SingleCharSpaceAlmostFull(t *testing.T) {
	// Все односимвольные коды кроме одного заняты
	taken := make(map[string]bool)
	for _, c := range shortcode.Alphabet[1:] {
		taken[string(c)] = true
	}
	gen := shortcode.NewGenerator(&fakeChecker{taken: taken})

	code, err := gen.Generate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, shortcode.Alphabet[:1], code)
}

func TestGenerate_CheckerError(t *testing.T) {
	boom := errors.New("connection refused")
	gen := shortcode.NewGenerator(&fakeChecker{err: boom})

	_, err := gen.Generate(context.Background(), 7)
	assert.ErrorIs(t, err, boom)
}

func TestGenerate_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gen := shortcode.NewGenerator(&fakeChecker{})

	_, err := gen.Generate(ctx, 7)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRandom_Distribution(t *testing.T) {
	seen := make(map[byte]bool)
	for i := 0; i < 2000; i++ {
		code, err := shortcode.Random(1)
		require.NoError(t, err)
		seen[code[0]] = true
	}
	// При 2000 попытках все 62 символа должны встретиться
	assert.Len(t, seen, len(shortcode.Alphabet))
}

func TestRandom_NonPositiveLength(t *testing.T) {
	for _, length := range []int{0, -1, -100} {
		code, err := shortcode.Random(length)
		require.NoError(t, err)
		assert.Len(t, code, shortcode.DefaultLength)
		assert.True(t, shortcode.Valid(code))
	}
}

func TestValid(t *testing.T) {
	assert.True(t, shortcode.Valid("a"))
	assert.True(t, shortcode.Valid("Abc123"))
	assert.True(t, shortcode.Valid("abcdefghijklmno"))

	assert.False(t, shortcode.Valid(""))
	assert.False(t, shortcode.Valid("abcdefghijklmnop"))
	assert.False(t, shortcode.Valid("my-code"))
	assert.False(t, shortcode.Valid("favicon.ico"))
}
