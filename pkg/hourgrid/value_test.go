package hourgrid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseValue(t *testing.T) {
	t.Run("numeric cells become present values", func(t *testing.T) {
		v := ParseValue("461901")
		assert.True(t, v.Valid)
		assert.Equal(t, 461901.0, v.Float)
	})

	t.Run("decimal comma is tolerated", func(t *testing.T) {
		v := ParseValue("25,5")
		assert.True(t, v.Valid)
		assert.Equal(t, 25.5, v.Float)
	})

	t.Run("empty, dash and garbage are absent", func(t *testing.T) {
		for _, raw := range []string{"", "-", "  ", "n/a", "12x"} {
			assert.False(t, ParseValue(raw).Valid, "raw=%q", raw)
		}
	})
}

func TestValueString(t *testing.T) {
	t.Run("absent renders as empty field", func(t *testing.T) {
		assert.Equal(t, "", Value{}.String())
	})

	t.Run("integral values render without decimal part", func(t *testing.T) {
		assert.Equal(t, "461901", Some(461901).String())
	})

	t.Run("fractional values keep their digits", func(t *testing.T) {
		assert.Equal(t, "-3.7", Some(-3.7).String())
	})
}

func TestSum(t *testing.T) {
	t.Run("absent only when all inputs absent", func(t *testing.T) {
		assert.False(t, Sum(Value{}, Value{}, Value{}).Valid)
		assert.False(t, Sum().Valid)
	})

	t.Run("absent inputs are ignored, not zeroed", func(t *testing.T) {
		got := Sum(Some(10), Value{}, Some(5))
		assert.True(t, got.Valid)
		assert.Equal(t, 15.0, got.Float)
	})

	t.Run("single present value survives", func(t *testing.T) {
		got := Sum(Value{}, Some(42))
		assert.True(t, got.Valid)
		assert.Equal(t, 42.0, got.Float)
	})
}
