package service

import (
	"context"
	"fmt"
	"time"

	"stuti/apperr"
	"stuti/models"
	"stuti/repository"

	"github.com/samber/lo"
)

type QuestionCreate struct {
	MemberID     int64
	StudyGroupID int64
	ParentID     *int64
	Content      string
}

type QuestionChange struct {
	MemberID     int64
	StudyGroupID int64
	QuestionID   int64
	Content      string
}

type QuestionResponse struct {
	QuestionID int64              `json:"studyGroupQuestionId"`
	ParentID   *int64             `json:"parentId,omitempty"`
	Content    string             `json:"content"`
	CreatedAt  time.Time          `json:"createdAt"`
	Writer     WriterResponse     `json:"writer"`
	Replies    []QuestionResponse `json:"replies,omitempty"`
}

type QuestionService struct {
	store *repository.Store
}

func NewQuestionService(store *repository.Store) *QuestionService {
	return &QuestionService{store: store}
}

func (s *QuestionService) CreateQuestion(ctx context.Context, in QuestionCreate) (int64, error) {
	if err := validateContent(in.Content); err != nil {
		return 0, err
	}

	var questionID int64
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		found, err := tx.StudyGroups.ExistsByID(ctx, in.StudyGroupID)
		if err != nil {
			return err
		}
		if !found {
			return apperr.New(apperr.StudyGroupNotFound)
		}

		parentID := in.ParentID
		if parentID != nil {
			parent, err := tx.Questions.FindByID(ctx, *parentID)
			if err != nil {
				return notFound(err, apperr.StudyGroupQuestionNotFound)
			}
			if parent.StudyGroupID != in.StudyGroupID {
				return apperr.New(apperr.NotMatchStudyGroup)
			}
			// Threads are one level deep.
			if parent.ParentID != nil {
				parentID = parent.ParentID
			}
		}

		question := &models.StudyGroupQuestion{
			Content:      in.Content,
			ParentID:     parentID,
			MemberID:     in.MemberID,
			StudyGroupID: in.StudyGroupID,
		}
		if err := tx.Questions.Create(ctx, question); err != nil {
			return fmt.Errorf("create question: %w", err)
		}
		questionID = question.ID
		return nil
	})
	return questionID, err
}

func (s *QuestionService) UpdateQuestion(ctx context.Context, in QuestionChange) (int64, error) {
	if err := validateContent(in.Content); err != nil {
		return 0, err
	}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := ownQuestion(ctx, tx, in.MemberID, in.StudyGroupID, in.QuestionID); err != nil {
			return err
		}
		return tx.Questions.UpdateContent(ctx, in.QuestionID, in.Content)
	})
	return in.QuestionID, err
}

// DeleteQuestion removes the question and its replies.
func (s *QuestionService) DeleteQuestion(ctx context.Context, memberID, studyGroupID, questionID int64) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := ownQuestion(ctx, tx, memberID, studyGroupID, questionID); err != nil {
			return err
		}
		if err := tx.Questions.DeleteByParentID(ctx, questionID); err != nil {
			return fmt.Errorf("delete replies: %w", err)
		}
		return tx.Questions.Delete(ctx, questionID)
	})
}

func ownQuestion(ctx context.Context, tx *repository.Store, memberID, studyGroupID, questionID int64) (*models.StudyGroupQuestion, error) {
	question, err := tx.Questions.FindByID(ctx, questionID)
	if err != nil {
		return nil, notFound(err, apperr.StudyGroupQuestionNotFound)
	}
	if question.StudyGroupID != studyGroupID {
		return nil, apperr.New(apperr.NotMatchStudyGroup)
	}
	if question.MemberID != memberID {
		return nil, apperr.New(apperr.NotMatchWriter)
	}
	return question, nil
}

// GetQuestions lists a group's questions oldest first with replies nested
// under the question they answer.
func (s *QuestionService) GetQuestions(ctx context.Context, studyGroupID int64) ([]QuestionResponse, error) {
	found, err := s.store.StudyGroups.ExistsByID(ctx, studyGroupID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperr.New(apperr.StudyGroupNotFound)
	}

	questions, err := s.store.Questions.FindByStudyGroupID(ctx, studyGroupID)
	if err != nil {
		return nil, fmt.Errorf("find questions: %w", err)
	}
	writerByID, err := writers(ctx, s.store.Members, lo.Map(questions, func(q models.StudyGroupQuestion, _ int) int64 { return q.MemberID }))
	if err != nil {
		return nil, fmt.Errorf("find writers: %w", err)
	}

	children := lo.GroupBy(lo.Filter(questions, func(q models.StudyGroupQuestion, _ int) bool { return q.ParentID != nil }),
		func(q models.StudyGroupQuestion) int64 { return *q.ParentID })

	var build func(q models.StudyGroupQuestion, _ int) QuestionResponse
	build = func(q models.StudyGroupQuestion, _ int) QuestionResponse {
		return QuestionResponse{
			QuestionID: q.ID,
			ParentID:   q.ParentID,
			Content:    q.Content,
			CreatedAt:  q.CreatedAt,
			Writer:     writerByID[q.MemberID],
			Replies:    lo.Map(children[q.ID], build),
		}
	}
	roots := lo.Filter(questions, func(q models.StudyGroupQuestion, _ int) bool { return q.ParentID == nil })
	return lo.Map(roots, build), nil
}
