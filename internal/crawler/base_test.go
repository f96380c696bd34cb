package crawler

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pricewatch/hardgamers-watcher/logger"
	apperrors "github.com/pricewatch/hardgamers-watcher/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor(t *testing.T, buf *bytes.Buffer) *Extractor {
	t.Helper()

	log := logger.Nop()
	if buf != nil {
		log = logger.New(buf)
	}

	extractor, err := NewExtractor(HardGamers("https://www.hardgamers.com.ar"), log)
	require.NoError(t, err)
	return extractor
}

func TestExtractor_Extract(t *testing.T) {
	extractor := newTestExtractor(t, nil)

	product, err := extractor.Extract(newMockRecord("  RTX 4060  ", "$19.999,50").withLink("/product/123"))
	assert.NoError(t, err)
	assert.Equal(t, "RTX 4060", product.Title)
	assert.True(t, decimal.RequireFromString("19999.50").Equal(product.Price))
	assert.Equal(t, "HardGamers", product.Shop)
	assert.Equal(t, "https://www.hardgamers.com.ar/product/123", product.URL)
	assert.Zero(t, product.ID)
}

func TestExtractor_ExtractKeepsAbsoluteLinks(t *testing.T) {
	extractor := newTestExtractor(t, nil)

	product, err := extractor.Extract(newMockRecord("Mouse", "$5.000").withLink("https://shop.example.com/mouse"))
	assert.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/mouse", product.URL)
}

func TestExtractor_ExtractWithoutLink(t *testing.T) {
	extractor := newTestExtractor(t, nil)

	product, err := extractor.Extract(newMockRecord("Teclado", "$12.500"))
	assert.NoError(t, err)
	assert.Empty(t, product.URL)
}

func TestExtractor_ExtractFailures(t *testing.T) {
	extractor := newTestExtractor(t, nil)

	tests := []struct {
		name   string
		record Record
		target error
	}{
		{"missing title", newMockRecord("", "$100"), apperrors.ErrValidation},
		{"missing price", newMockRecord("Monitor"), apperrors.ErrEmptyPrice},
		{"unparseable price", newMockRecord("Monitor", "consultar"), apperrors.ErrInvalidNumeric},
		{"several price fragments", newMockRecord("Monitor", "$19.999", "$17.999"), apperrors.ErrInvalidNumeric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extractor.Extract(tt.record)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestExtractor_ExtractAllSkipsBadRecords(t *testing.T) {
	var buf bytes.Buffer
	extractor := newTestExtractor(t, &buf)

	records := []Record{
		newMockRecord("First", "$1.000"),
		newMockRecord("", "$2.000"),
		newMockRecord("Third", "$3.000"),
	}

	products := extractor.ExtractAll(records)

	assert.Len(t, products, len(records)-1)
	assert.Equal(t, "First", products[0].Title)
	assert.Equal(t, "Third", products[1].Title)
	assert.Equal(t, 1, strings.Count(buf.String(), "skipping record"))
	assert.Contains(t, buf.String(), `"record":1`)
}

func TestExtractor_ExtractAllEmpty(t *testing.T) {
	extractor := newTestExtractor(t, nil)

	products := extractor.ExtractAll(nil)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}

func TestNewExtractorRejectsRelativeOrigin(t *testing.T) {
	_, err := NewExtractor(HardGamers("/relative"), logger.Nop())

	var appErr *apperrors.AppError
	if assert.ErrorAs(t, err, &appErr) {
		assert.Equal(t, apperrors.ErrorTypeConfiguration, appErr.Type)
	}
}
