// Package service holds the business rules. Every mutating call takes the
// acting member id explicitly and runs inside one database transaction.
package service

import (
	"context"
	"errors"
	"strings"

	"stuti/apperr"
	"stuti/models"
	"stuti/repository"

	"github.com/samber/lo"
)

// ImageRemover queues images for deletion once no row references them.
type ImageRemover interface {
	Enqueue(urls ...string)
}

type WriterResponse struct {
	MemberID        int64         `json:"memberId"`
	Nickname        string        `json:"nickname"`
	ProfileImageURL string        `json:"profileImageUrl"`
	Field           models.Field  `json:"field"`
	Career          models.Career `json:"career"`
	Mbti            models.Mbti   `json:"mbti"`
}

func toWriter(m models.Member) WriterResponse {
	return WriterResponse{
		MemberID:        m.ID,
		Nickname:        m.Nickname,
		ProfileImageURL: m.ProfileImageURL,
		Field:           m.Field,
		Career:          m.Career,
		Mbti:            m.Mbti,
	}
}

// writers loads the members behind ids. Ids with no member map to a writer
// carrying only the id.
func writers(ctx context.Context, repo *repository.MemberRepository, ids []int64) (map[int64]WriterResponse, error) {
	members, err := repo.FindByIDs(ctx, lo.Uniq(ids))
	if err != nil {
		return nil, err
	}
	byID := lo.MapValues(lo.KeyBy(members, func(m models.Member) int64 { return m.ID }),
		func(m models.Member, _ int64) WriterResponse { return toWriter(m) })
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			byID[id] = WriterResponse{MemberID: id}
		}
	}
	return byID, nil
}

// notFound turns a missing row into the given client error and passes any
// other error through.
func notFound(err error, code apperr.Code) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.New(code)
	}
	return err
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return apperr.Newf(apperr.InvalidMethodArgument, "content must not be blank")
	}
	return nil
}

func validateSize(size int) error {
	if size <= 0 {
		return apperr.Newf(apperr.InvalidMethodArgument, "size must be positive")
	}
	return nil
}

// page trims a size+1 fetch down to size and reports whether a row was cut.
func page[T any](rows []T, size int) ([]T, bool) {
	if len(rows) > size {
		return rows[:size], true
	}
	return rows, false
}
