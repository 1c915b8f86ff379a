package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// Вид источника фрагмента базы знаний.
const (
	SourceWebsite = "website"
	SourceFAQ     = "faq"
	SourceFile    = "file"
)

// Website представляет проиндексированную страницу сайта компании.
type Website struct {
	ID         int       `json:"id"`
	CompanyUID string    `json:"company_uid"`
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DummyWebsite используется для приёма данных из JSON-запроса
// до преобразования в Website.
type DummyWebsite struct {
	URL     string `json:"url" validate:"required,url"`
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required"`
}

// FAQ представляет пару вопрос-ответ в базе знаний компании.
type FAQ struct {
	ID         int       `json:"id"`
	CompanyUID string    `json:"company_uid"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DummyFAQ используется для приёма данных из JSON-запроса.
type DummyFAQ struct {
	Question string `json:"question" validate:"required,max=500"`
	Answer   string `json:"answer" validate:"required"`
}

// UploadedFile представляет метаданные загруженного файла базы знаний.
// Содержимое хранится в S3-совместимом хранилище по ключу StorageKey.
type UploadedFile struct {
	ID          int       `json:"id"`
	CompanyUID  string    `json:"company_uid"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	StorageKey  string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// KnowledgeChunk представляет фрагмент текста базы знаний
// с вектором эмбеддинга для семантического поиска.
type KnowledgeChunk struct {
	ID         int             `json:"id"`
	CompanyUID string          `json:"company_uid"`
	SourceKind string          `json:"source_kind"`
	SourceID   int             `json:"source_id"`
	Content    string          `json:"content"`
	Embedding  pgvector.Vector `json:"-"`
	CreatedAt  time.Time       `json:"created_at"`
}

// SearchResult представляет найденный фрагмент с оценкой релевантности.
type SearchResult struct {
	Content    string  `json:"content"`
	SourceKind string  `json:"source_kind"`
	SourceID   int     `json:"source_id"`
	Similarity float64 `json:"similarity"`
}
