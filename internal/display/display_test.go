package display_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condopapers/internal/display"
)

func TestDefaultFormatter(t *testing.T) {
	f := display.Default()
	assert.Equal(t, "15/03/2026", f.Date("2026-03-15"))
	assert.Equal(t, "not-a-date", f.Date("not-a-date"))
	assert.Equal(t, "R$ 2.500,00", f.Money(2500))
	assert.Equal(t, "R$ 850,50", f.Money(850.5))
	assert.Equal(t, "10/03/2026, 14:30:00", f.DateTime("2026-03-10T14:30:00Z"))
}

func TestCustomOptions(t *testing.T) {
	f, err := display.New(display.Options{Language: "en-US", DateLayout: "2006/01/02", Currency: "US$"})
	require.NoError(t, err)
	assert.Equal(t, "2026/03/15", f.Date("2026-03-15"))
	assert.Equal(t, "US$ 1,200.00", f.Money(1200))
}

func TestBadLanguage(t *testing.T) {
	_, err := display.New(display.Options{Language: "!!"})
	assert.Error(t, err)
}
