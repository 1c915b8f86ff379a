// Package knowledge содержит бизнес-логику базы знаний: сайты, FAQ,
// файлы и их индексация для семантического поиска.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/ainexo/declair/internal/lib/embeddings"
	"github.com/ainexo/declair/internal/lib/sl"
	"github.com/ainexo/declair/internal/models"
)

// ErrUnsupportedFileType загруженный файл не входит в список допустимых форматов.
var ErrUnsupportedFileType = errors.New("unsupported file type")

// chunkSize целевой размер фрагмента индексации в символах.
const chunkSize = 1000

// maxFileSize предел размера загружаемого файла.
const maxFileSize = 10 << 20

// Repository определяет методы для работы с базой знаний в хранилище.
type Repository interface {
	CreateWebsite(ctx context.Context, site models.Website) (int, error)
	ListWebsites(ctx context.Context, companyUID string, limit, offset int) ([]*models.Website, error)
	UpdateWebsite(ctx context.Context, site models.Website, id int, companyUID string) (int, error)
	RemoveWebsite(ctx context.Context, id int, companyUID string) (int, error)

	CreateFAQ(ctx context.Context, faq models.FAQ) (int, error)
	ListFAQs(ctx context.Context, companyUID string, limit, offset int) ([]*models.FAQ, error)
	UpdateFAQ(ctx context.Context, faq models.FAQ, id int, companyUID string) (int, error)
	RemoveFAQ(ctx context.Context, id int, companyUID string) (int, error)

	CreateFileMeta(ctx context.Context, file models.UploadedFile) (int, error)
	ListFiles(ctx context.Context, companyUID string, limit, offset int) ([]*models.UploadedFile, error)
	RemoveFileMeta(ctx context.Context, id int, companyUID string) (string, error)

	InsertChunks(ctx context.Context, chunks []models.KnowledgeChunk) error
	RemoveChunksBySource(ctx context.Context, companyUID, sourceKind string, sourceID int) error
}

// FileStore описывает объектное хранилище содержимого файлов.
type FileStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Remove(ctx context.Context, key string) error
}

// Service реализует операции базы знаний. Каждая запись индексируется:
// текст нарезается на фрагменты, для фрагментов считаются эмбеддинги,
// фрагменты сохраняются вместе с векторами.
type Service struct {
	repo     Repository
	embedder embeddings.Embedder
	files    FileStore
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, embedder embeddings.Embedder, files FileStore, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		embedder: embedder,
		files:    files,
		log:      log,
	}
}

// CreateWebsite сохраняет страницу и индексирует её содержимое.
func (s *Service) CreateWebsite(ctx context.Context, companyUID string, req models.DummyWebsite) (int, error) {
	const op = "knowledge.CreateWebsite"

	id, err := s.repo.CreateWebsite(ctx, models.Website{
		CompanyUID: companyUID,
		URL:        req.URL,
		Title:      req.Title,
		Content:    req.Content,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.index(ctx, companyUID, models.SourceWebsite, id, req.Title+"\n\n"+req.Content)
	return id, nil
}

// ListWebsites возвращает страницы компании с пагинацией.
func (s *Service) ListWebsites(ctx context.Context, companyUID string, limit, offset int) ([]*models.Website, error) {
	return s.repo.ListWebsites(ctx, companyUID, limit, offset)
}

// UpdateWebsite обновляет страницу и переиндексирует её содержимое.
func (s *Service) UpdateWebsite(ctx context.Context, companyUID string, id int, req models.DummyWebsite) (int, error) {
	const op = "knowledge.UpdateWebsite"

	count, err := s.repo.UpdateWebsite(ctx, models.Website{
		URL:     req.URL,
		Title:   req.Title,
		Content: req.Content,
	}, id, companyUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if count > 0 {
		s.reindex(ctx, companyUID, models.SourceWebsite, id, req.Title+"\n\n"+req.Content)
	}
	return count, nil
}

// RemoveWebsite удаляет страницу вместе с её фрагментами индекса.
func (s *Service) RemoveWebsite(ctx context.Context, companyUID string, id int) (int, error) {
	const op = "knowledge.RemoveWebsite"

	count, err := s.repo.RemoveWebsite(ctx, id, companyUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if count > 0 {
		if err := s.repo.RemoveChunksBySource(ctx, companyUID, models.SourceWebsite, id); err != nil {
			s.log.Warn("failed to remove index chunks", sl.Err(err))
		}
	}
	return count, nil
}

// CreateFAQ сохраняет пару вопрос-ответ и индексирует её.
func (s *Service) CreateFAQ(ctx context.Context, companyUID string, req models.DummyFAQ) (int, error) {
	const op = "knowledge.CreateFAQ"

	id, err := s.repo.CreateFAQ(ctx, models.FAQ{
		CompanyUID: companyUID,
		Question:   req.Question,
		Answer:     req.Answer,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.index(ctx, companyUID, models.SourceFAQ, id, req.Question+"\n"+req.Answer)
	return id, nil
}

// ListFAQs возвращает FAQ компании с пагинацией.
func (s *Service) ListFAQs(ctx context.Context, companyUID string, limit, offset int) ([]*models.FAQ, error) {
	return s.repo.ListFAQs(ctx, companyUID, limit, offset)
}

// UpdateFAQ обновляет пару вопрос-ответ и переиндексирует её.
func (s *Service) UpdateFAQ(ctx context.Context, companyUID string, id int, req models.DummyFAQ) (int, error) {
	const op = "knowledge.UpdateFAQ"

	count, err := s.repo.UpdateFAQ(ctx, models.FAQ{
		Question: req.Question,
		Answer:   req.Answer,
	}, id, companyUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if count > 0 {
		s.reindex(ctx, companyUID, models.SourceFAQ, id, req.Question+"\n"+req.Answer)
	}
	return count, nil
}

// RemoveFAQ удаляет пару вопрос-ответ вместе с фрагментами индекса.
func (s *Service) RemoveFAQ(ctx context.Context, companyUID string, id int) (int, error) {
	const op = "knowledge.RemoveFAQ"

	count, err := s.repo.RemoveFAQ(ctx, id, companyUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if count > 0 {
		if err := s.repo.RemoveChunksBySource(ctx, companyUID, models.SourceFAQ, id); err != nil {
			s.log.Warn("failed to remove index chunks", sl.Err(err))
		}
	}
	return count, nil
}

// UploadFile сохраняет файл в объектное хранилище и его метаданные в базу.
// Тип определяется по сигнатуре содержимого, а не по расширению.
// Текстовые файлы дополнительно индексируются для поиска.
func (s *Service) UploadFile(ctx context.Context, companyUID, fileName string, data []byte) (int, error) {
	const op = "knowledge.UploadFile"

	if len(data) == 0 || len(data) > maxFileSize {
		return 0, ErrUnsupportedFileType
	}
	contentType, indexable, err := detectContentType(data)
	if err != nil {
		return 0, err
	}

	storageKey := companyUID + "/" + uuid.NewString() + "/" + fileName
	if err := s.files.Upload(ctx, storageKey, data, contentType); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.repo.CreateFileMeta(ctx, models.UploadedFile{
		CompanyUID:  companyUID,
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		StorageKey:  storageKey,
	})
	if err != nil {
		// метаданные не записались, содержимое в хранилище не оставляем
		if rmErr := s.files.Remove(ctx, storageKey); rmErr != nil {
			s.log.Error("failed to remove orphaned file", sl.Err(rmErr),
				slog.String("storage_key", storageKey))
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if indexable {
		s.index(ctx, companyUID, models.SourceFile, id, string(data))
	}
	return id, nil
}

// ListFiles возвращает метаданные файлов компании с пагинацией.
func (s *Service) ListFiles(ctx context.Context, companyUID string, limit, offset int) ([]*models.UploadedFile, error) {
	return s.repo.ListFiles(ctx, companyUID, limit, offset)
}

// RemoveFile удаляет файл из хранилища, его метаданные и фрагменты индекса.
func (s *Service) RemoveFile(ctx context.Context, companyUID string, id int) error {
	const op = "knowledge.RemoveFile"

	storageKey, err := s.repo.RemoveFileMeta(ctx, id, companyUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.files.Remove(ctx, storageKey); err != nil {
		s.log.Error("failed to remove file content", sl.Err(err),
			slog.String("storage_key", storageKey))
	}
	if err := s.repo.RemoveChunksBySource(ctx, companyUID, models.SourceFile, id); err != nil {
		s.log.Warn("failed to remove index chunks", sl.Err(err))
	}
	return nil
}

// index нарезает текст на фрагменты, получает эмбеддинги и сохраняет их.
// Ошибки индексации не откатывают основную запись: её можно переиндексировать
// повторным обновлением.
func (s *Service) index(ctx context.Context, companyUID, sourceKind string, sourceID int, text string) {
	parts := ChunkText(text, chunkSize)
	if len(parts) == 0 {
		return
	}
	vectors, err := s.embedder.EmbedBatch(ctx, parts)
	if err != nil {
		s.log.Error("failed to embed chunks", sl.Err(err),
			slog.String("source_kind", sourceKind), slog.Int("source_id", sourceID))
		return
	}
	chunks := make([]models.KnowledgeChunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, models.KnowledgeChunk{
			CompanyUID: companyUID,
			SourceKind: sourceKind,
			SourceID:   sourceID,
			Content:    part,
			Embedding:  vectors[i],
		})
	}
	if err := s.repo.InsertChunks(ctx, chunks); err != nil {
		s.log.Error("failed to store chunks", sl.Err(err),
			slog.String("source_kind", sourceKind), slog.Int("source_id", sourceID))
	}
}

func (s *Service) reindex(ctx context.Context, companyUID, sourceKind string, sourceID int, text string) {
	if err := s.repo.RemoveChunksBySource(ctx, companyUID, sourceKind, sourceID); err != nil {
		s.log.Warn("failed to remove stale chunks", sl.Err(err))
	}
	s.index(ctx, companyUID, sourceKind, sourceID, text)
}

// detectContentType определяет тип файла по сигнатуре и сообщает,
// пригодно ли содержимое для текстовой индексации.
func detectContentType(data []byte) (contentType string, indexable bool, err error) {
	kind, _ := filetype.Match(data)
	if kind != filetype.Unknown {
		switch kind.Extension {
		case "pdf", "doc", "docx", "xls", "xlsx":
			return kind.MIME.Value, false, nil
		default:
			return "", false, ErrUnsupportedFileType
		}
	}
	// сигнатура не распознана: принимаем только валидный текст
	if !isPlainText(data) {
		return "", false, ErrUnsupportedFileType
	}
	return "text/plain; charset=utf-8", true, nil
}

func isPlainText(data []byte) bool {
	for _, b := range data {
		if b == 0 {
			return false
		}
	}
	return true
}

// ChunkText нарезает текст на фрагменты около limit символов,
// стараясь резать по границам абзацев.
func ChunkText(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		// абзац длиннее лимита режем жестко
		for len(para) > limit {
			if current.Len() > 0 {
				chunks = append(chunks, current.String())
				current.Reset()
			}
			chunks = append(chunks, para[:limit])
			para = para[limit:]
		}
		if current.Len() > 0 && current.Len()+len(para)+2 > limit {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
