package pdftext

import (
	"context"
	"testing"

	"decaprep/internal/util"

	"github.com/stretchr/testify/require"
)

func TestLedongthucRejectsNonPDF(t *testing.T) {
	_, err := New().ExtractText(context.Background(), []byte("this is not a pdf"))
	require.ErrorIs(t, err, util.ErrUnreadablePDF)

	_, err = New().ExtractText(context.Background(), nil)
	require.ErrorIs(t, err, util.ErrUnreadablePDF)
}

func TestLedongthucHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().ExtractText(ctx, []byte("%PDF-1.4"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestStatic(t *testing.T) {
	s := Static{"doc-a": "1. Stem\x00 A. a", "blank": "  \x01 "}

	text, err := s.ExtractText(context.Background(), []byte("doc-a"))
	require.NoError(t, err)
	require.Equal(t, "1. Stem A. a", text)

	_, err = s.ExtractText(context.Background(), []byte("blank"))
	require.ErrorIs(t, err, util.ErrNoExtractableText)

	_, err = s.ExtractText(context.Background(), []byte("missing"))
	require.ErrorIs(t, err, util.ErrUnreadablePDF)
}
