package knowledge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		limit      int
		wantChunks []string
	}{
		{
			name:       "empty text",
			text:       "   \n\n  ",
			limit:      100,
			wantChunks: nil,
		},
		{
			name:       "short text fits in one chunk",
			text:       "Условия возврата товара.",
			limit:      100,
			wantChunks: []string{"Условия возврата товара."},
		},
		{
			name:  "paragraphs packed up to limit",
			text:  "aaaa\n\nbbbb\n\ncccc",
			limit: 10,
			// первые два абзаца с разделителем занимают ровно 10 символов
			wantChunks: []string{"aaaa\n\nbbbb", "cccc"},
		},
		{
			name:       "oversized paragraph is split hard",
			text:       strings.Repeat("x", 25),
			limit:      10,
			wantChunks: []string{"xxxxxxxxxx", "xxxxxxxxxx", "xxxxx"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChunkText(tt.text, tt.limit)
			assert.Equal(t, tt.wantChunks, got)
		})
	}
}

func TestChunkText_NeverExceedsLimit(t *testing.T) {
	text := strings.Repeat("Доставка занимает от двух до пяти рабочих дней.\n\n", 50)
	chunks := ChunkText(text, 200)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 200)
		assert.NotEmpty(t, strings.TrimSpace(chunk))
	}
}

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		name          string
		data          []byte
		wantType      string
		wantIndexable bool
		wantErr       error
	}{
		{
			name:          "plain utf-8 text",
			data:          []byte("Часто задаваемые вопросы о доставке."),
			wantType:      "text/plain; charset=utf-8",
			wantIndexable: true,
		},
		{
			name:     "pdf by signature",
			data:     []byte("%PDF-1.7 rest of the document"),
			wantType: "application/pdf",
		},
		{
			name:    "binary garbage rejected",
			data:    []byte{0x00, 0x01, 0x02, 0x03},
			wantErr: ErrUnsupportedFileType,
		},
		{
			name:    "executable signature rejected",
			data:    []byte{0x7f, 'E', 'L', 'F', 0x02, 0x01, 0x01, 0x00},
			wantErr: ErrUnsupportedFileType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contentType, indexable, err := detectContentType(tt.data)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantType, contentType)
			assert.Equal(t, tt.wantIndexable, indexable)
		})
	}
}
