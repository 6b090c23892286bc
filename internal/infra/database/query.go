package database

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/xavierca1/ligue-crm/internal/entity"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// likePattern escapa % e _ para o termo ser tratado como texto no ILIKE.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(term)) + "%"
}

// orderBy traduz a chave de ordenação; id entra como desempate para a
// paginação ficar estável. Nomes usam a collation ICU pt-BR, a mesma de
// entity.SortLeads.
func orderBy(key entity.LeadSort) string {
	switch key {
	case entity.SortOldest:
		return "created_at ASC, id ASC"
	case entity.SortNameAsc:
		return `lower(nome) COLLATE "pt-BR-x-icu" ASC NULLS LAST, id ASC`
	case entity.SortNameDesc:
		return `lower(nome) COLLATE "pt-BR-x-icu" DESC NULLS LAST, id ASC`
	default:
		return "created_at DESC, id ASC"
	}
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
