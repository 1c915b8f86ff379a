package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/ainexo/declair/internal/models"
)

// CreateWebsite вставляет новую запись сайта и возвращает её ID.
func (s *Storage) CreateWebsite(ctx context.Context, site models.Website) (int, error) {
	const op = "storage.CreateWebsite"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int
	query := `INSERT INTO websites (company_uid, url, title, content)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query,
		site.CompanyUID, site.URL, site.Title, site.Content).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListWebsites возвращает список сайтов компании с пагинацией.
func (s *Storage) ListWebsites(ctx context.Context, companyUID string, limit, offset int) ([]*models.Website, error) {
	const op = "storage.ListWebsites"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, company_uid, url, title, content, created_at, updated_at
			  FROM websites
			  WHERE company_uid = $1
			  ORDER BY id
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, companyUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Website
	for rows.Next() {
		var item models.Website
		if err := rows.Scan(&item.ID, &item.CompanyUID, &item.URL, &item.Title,
			&item.Content, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateWebsite обновляет сайт компании и возвращает количество изменённых строк.
func (s *Storage) UpdateWebsite(ctx context.Context, site models.Website, id int, companyUID string) (int, error) {
	const op = "storage.UpdateWebsite"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE websites
			  SET url = $1, title = $2, content = $3, updated_at = NOW()
			  WHERE id = $4 AND company_uid = $5`
	result, err := s.DB.ExecContext(ctx, query,
		site.URL, site.Title, site.Content, id, companyUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveWebsite удаляет сайт компании и возвращает количество удалённых строк.
func (s *Storage) RemoveWebsite(ctx context.Context, id int, companyUID string) (int, error) {
	const op = "storage.RemoveWebsite"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`DELETE FROM websites WHERE id = $1 AND company_uid = $2`, id, companyUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// CreateFAQ вставляет новую запись вопроса-ответа и возвращает её ID.
func (s *Storage) CreateFAQ(ctx context.Context, faq models.FAQ) (int, error) {
	const op = "storage.CreateFAQ"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int
	query := `INSERT INTO faqs (company_uid, question, answer)
			  VALUES ($1, $2, $3)
			  RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query,
		faq.CompanyUID, faq.Question, faq.Answer).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListFAQs возвращает список вопросов-ответов компании с пагинацией.
func (s *Storage) ListFAQs(ctx context.Context, companyUID string, limit, offset int) ([]*models.FAQ, error) {
	const op = "storage.ListFAQs"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, company_uid, question, answer, created_at, updated_at
			  FROM faqs
			  WHERE company_uid = $1
			  ORDER BY id
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, companyUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.FAQ
	for rows.Next() {
		var item models.FAQ
		if err := rows.Scan(&item.ID, &item.CompanyUID, &item.Question, &item.Answer,
			&item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateFAQ обновляет вопрос-ответ и возвращает количество изменённых строк.
func (s *Storage) UpdateFAQ(ctx context.Context, faq models.FAQ, id int, companyUID string) (int, error) {
	const op = "storage.UpdateFAQ"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE faqs
			  SET question = $1, answer = $2, updated_at = NOW()
			  WHERE id = $3 AND company_uid = $4`
	result, err := s.DB.ExecContext(ctx, query, faq.Question, faq.Answer, id, companyUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveFAQ удаляет вопрос-ответ и возвращает количество удалённых строк.
func (s *Storage) RemoveFAQ(ctx context.Context, id int, companyUID string) (int, error) {
	const op = "storage.RemoveFAQ"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`DELETE FROM faqs WHERE id = $1 AND company_uid = $2`, id, companyUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// CreateFileMeta сохраняет метаданные загруженного файла и возвращает ID записи.
func (s *Storage) CreateFileMeta(ctx context.Context, file models.UploadedFile) (int, error) {
	const op = "storage.CreateFileMeta"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int
	query := `INSERT INTO uploaded_files (company_uid, file_name, content_type, size_bytes, storage_key)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query,
		file.CompanyUID, file.FileName, file.ContentType, file.SizeBytes,
		file.StorageKey).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListFiles возвращает метаданные файлов компании с пагинацией.
func (s *Storage) ListFiles(ctx context.Context, companyUID string, limit, offset int) ([]*models.UploadedFile, error) {
	const op = "storage.ListFiles"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, company_uid, file_name, content_type, size_bytes, storage_key, created_at
			  FROM uploaded_files
			  WHERE company_uid = $1
			  ORDER BY id
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, companyUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.UploadedFile
	for rows.Next() {
		var item models.UploadedFile
		if err := rows.Scan(&item.ID, &item.CompanyUID, &item.FileName, &item.ContentType,
			&item.SizeBytes, &item.StorageKey, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// RemoveFileMeta удаляет метаданные файла и возвращает ключ хранилища
// для удаления содержимого из корзины.
func (s *Storage) RemoveFileMeta(ctx context.Context, id int, companyUID string) (string, error) {
	const op = "storage.RemoveFileMeta"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var storageKey string
	err := s.DB.QueryRowContext(ctx,
		`DELETE FROM uploaded_files WHERE id = $1 AND company_uid = $2 RETURNING storage_key`,
		id, companyUID).Scan(&storageKey)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return storageKey, nil
}

// InsertChunks сохраняет фрагменты базы знаний с эмбеддингами одной транзакцией.
func (s *Storage) InsertChunks(ctx context.Context, chunks []models.KnowledgeChunk) error {
	const op = "storage.InsertChunks"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `INSERT INTO knowledge_chunks (company_uid, source_kind, source_id, content, embedding)
			  VALUES ($1, $2, $3, $4, $5)`
	for _, chunk := range chunks {
		if _, err := tx.ExecContext(ctx, query,
			chunk.CompanyUID, chunk.SourceKind, chunk.SourceID, chunk.Content,
			chunk.Embedding); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RemoveChunksBySource удаляет фрагменты одного источника базы знаний.
func (s *Storage) RemoveChunksBySource(ctx context.Context, companyUID, sourceKind string, sourceID int) error {
	const op = "storage.RemoveChunksBySource"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	_, err := s.DB.ExecContext(ctx,
		`DELETE FROM knowledge_chunks WHERE company_uid = $1 AND source_kind = $2 AND source_id = $3`,
		companyUID, sourceKind, sourceID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SearchChunks выполняет поиск по косинусному расстоянию среди фрагментов компании.
// Возвращаются только фрагменты со сходством выше minSimilarity, ближайшие первыми.
func (s *Storage) SearchChunks(ctx context.Context, companyUID string, embedding pgvector.Vector, limit int, minSimilarity float64) ([]*models.SearchResult, error) {
	const op = "storage.SearchChunks"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT content, source_kind, source_id, (1 - (embedding <=> $2)) AS similarity
			  FROM knowledge_chunks
			  WHERE company_uid = $1
			    AND (1 - (embedding <=> $2)) > $3
			  ORDER BY embedding <=> $2
			  LIMIT $4`
	rows, err := s.DB.QueryContext(ctx, query, companyUID, embedding, minSimilarity, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.SearchResult
	for rows.Next() {
		var item models.SearchResult
		if err := rows.Scan(&item.Content, &item.SourceKind, &item.SourceID,
			&item.Similarity); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
