package foundation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/layoutstate/internal/foundation/errors"
)

func TestResult(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		r := Ok[string, error]("cmp-1")
		require.True(t, r.IsOk())
		assert.False(t, r.IsErr())
		assert.Equal(t, "cmp-1", r.Unwrap())
		assert.Equal(t, "cmp-1", r.UnwrapOr("fallback"))
		assert.Panics(t, func() { r.UnwrapErr() })

		v, err := r.Split()
		require.NoError(t, err)
		assert.Equal(t, "cmp-1", v)
	})

	t.Run("err", func(t *testing.T) {
		r := Err[string, error](errors.New("rejected"))
		require.True(t, r.IsErr())
		assert.Equal(t, "fallback", r.UnwrapOr("fallback"))
		assert.EqualError(t, r.UnwrapErr(), "rejected")
		assert.Panics(t, func() { r.Unwrap() })
	})

	t.Run("typed error splits to a nil interface", func(t *testing.T) {
		r := Ok[int, *ferrors.ClassifiedError](7)
		_, err := r.Split()
		assert.Nil(t, err)

		failed := Err[int, *ferrors.ClassifiedError](ferrors.NotFoundError("missing").Build())
		_, err = failed.Split()
		assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
	})
}

func TestNormalizer(t *testing.T) {
	n := NewNormalizer(map[string]string{
		"full_width": "full_width",
		"Full-Width": "full_width",
		"two_column": "two_column",
	}, "full_width")

	assert.Equal(t, "full_width", n.Normalize(" full-width "))
	assert.Equal(t, "two_column", n.Normalize("TWO_COLUMN"))
	assert.Equal(t, "full_width", n.Normalize("sidebar"))

	_, ok := n.Lookup("sidebar")
	assert.False(t, ok)
	v, ok := n.Lookup("Two_Column")
	assert.True(t, ok)
	assert.Equal(t, "two_column", v)

	assert.Equal(t, []string{"full-width", "full_width", "two_column"}, n.Aliases())
}

func TestValidation(t *testing.T) {
	t.Run("required", func(t *testing.T) {
		v := Required[string]("document.id")
		assert.True(t, v("doc").Valid)
		assert.False(t, v("").Valid)
	})

	t.Run("at least", func(t *testing.T) {
		v := AtLeast("history.capacity", 2)
		assert.True(t, v(2).Valid)
		res := v(1)
		require.False(t, res.Valid)
		assert.Equal(t, "min", res.Errors[0].Code)
	})

	t.Run("chain keeps every failure", func(t *testing.T) {
		chain := NewValidatorChain(
			func(n int) ValidationResult { return Positive[int]("a")(n) },
			func(n int) ValidationResult { return AtLeast("b", 10)(n) },
		)
		assert.True(t, chain.Validate(50).Valid)

		res := chain.Validate(0)
		require.False(t, res.Valid)
		require.Len(t, res.Errors, 2)

		err := res.ToError()
		require.Error(t, err)
		assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
		assert.Contains(t, err.Error(), "a: must be positive")
		assert.Contains(t, err.Error(), "b: must be at least 10")
	})

	assert.NoError(t, Valid().ToError())
}
