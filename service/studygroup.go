package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stuti/apperr"
	"stuti/models"
	"stuti/repository"
	"stuti/storage"

	log "github.com/sirupsen/logrus"
)

const studyGroupImageDir = "study-groups"

type StudyGroupCreate struct {
	LeaderID         int64
	Title            string
	Description      string
	Topic            models.Topic
	Region           models.Region
	IsOnline         bool
	NumberOfRecruits int
	StartDateTime    time.Time
	EndDateTime      time.Time
	Image            *storage.Image
}

// StudyGroupChange edits a group. Unlike posts, a nil Image keeps the
// current image; a study group always has one.
type StudyGroupChange struct {
	ActorID      int64
	StudyGroupID int64
	Title        string
	Description  string
	Image        *storage.Image
}

type StudyGroupResponse struct {
	StudyGroupID     int64          `json:"studyGroupId"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Topic            models.Topic   `json:"topic"`
	Region           models.Region  `json:"region"`
	IsOnline         bool           `json:"isOnline"`
	NumberOfRecruits int            `json:"numberOfRecruits"`
	NumberOfMembers  int64          `json:"numberOfMembers"`
	StartDateTime    time.Time      `json:"startDateTime"`
	EndDateTime      time.Time      `json:"endDateTime"`
	ImageURL         string         `json:"imageUrl"`
	ThumbnailURL     string         `json:"thumbnailUrl"`
	Leader           WriterResponse `json:"leader"`
}

type StudyGroupService struct {
	store          *repository.Store
	images         storage.ImageStore
	remover        ImageRemover
	maxUploadBytes int64
	now            func() time.Time
}

func NewStudyGroupService(store *repository.Store, images storage.ImageStore, remover ImageRemover, maxUploadBytes int64) *StudyGroupService {
	return &StudyGroupService{
		store:          store,
		images:         images,
		remover:        remover,
		maxUploadBytes: maxUploadBytes,
		now:            time.Now,
	}
}

func (s *StudyGroupService) CreateStudyGroup(ctx context.Context, in StudyGroupCreate) (int64, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Description) == "" {
		return 0, apperr.Newf(apperr.InvalidMethodArgument, "title and description are required")
	}
	if !in.Topic.Valid() {
		return 0, apperr.Newf(apperr.InvalidMethodArgument, "unknown topic %q", in.Topic)
	}
	region := in.Region
	if in.IsOnline {
		region = models.RegionOnline
	}
	if !region.Valid() {
		return 0, apperr.Newf(apperr.InvalidMethodArgument, "unknown region %q", in.Region)
	}
	if in.NumberOfRecruits <= 0 {
		return 0, apperr.Newf(apperr.InvalidMethodArgument, "numberOfRecruits must be positive")
	}
	if !in.StartDateTime.After(s.now()) || !in.EndDateTime.After(in.StartDateTime) {
		return 0, apperr.New(apperr.InvalidStudyPeriod)
	}
	if err := storage.Validate(in.Image, s.maxUploadBytes); err != nil {
		return 0, err
	}

	var groupID int64
	var uploaded string
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Members.FindByID(ctx, in.LeaderID); err != nil {
			return notFound(err, apperr.MemberNotFound)
		}

		url, err := s.images.Upload(ctx, studyGroupImageDir, in.Image)
		if err != nil {
			return err
		}
		uploaded = url

		group := &models.StudyGroup{
			Title:            in.Title,
			Description:      in.Description,
			Topic:            in.Topic,
			Region:           region,
			IsOnline:         in.IsOnline,
			NumberOfRecruits: in.NumberOfRecruits,
			StudyPeriod: models.StudyPeriod{
				StartDateTime: in.StartDateTime,
				EndDateTime:   in.EndDateTime,
			},
			ImageURL:     url,
			ThumbnailURL: url,
			LeaderID:     in.LeaderID,
		}
		if err := tx.StudyGroups.Create(ctx, group); err != nil {
			return fmt.Errorf("create study group: %w", err)
		}
		if err := tx.StudyGroupMembers.Create(ctx, &models.StudyGroupMember{
			StudyGroupID: group.ID,
			MemberID:     in.LeaderID,
			Role:         models.StudyLeader,
		}); err != nil {
			return fmt.Errorf("create leader: %w", err)
		}
		groupID = group.ID
		return nil
	})
	if err != nil {
		if uploaded != "" {
			s.remover.Enqueue(uploaded)
		}
		return 0, err
	}

	log.WithFields(log.Fields{"studyGroupId": groupID, "leaderId": in.LeaderID}).Info("Created study group")
	return groupID, nil
}

func (s *StudyGroupService) GetStudyGroup(ctx context.Context, studyGroupID int64) (*StudyGroupResponse, error) {
	group, err := s.store.StudyGroups.FindByID(ctx, studyGroupID)
	if err != nil {
		return nil, notFound(err, apperr.StudyGroupNotFound)
	}
	count, err := s.store.StudyGroupMembers.CountByRoles(ctx, group.ID, models.StudyLeader, models.StudyMember)
	if err != nil {
		return nil, fmt.Errorf("count members: %w", err)
	}
	leader, err := writers(ctx, s.store.Members, []int64{group.LeaderID})
	if err != nil {
		return nil, fmt.Errorf("find leader: %w", err)
	}

	return &StudyGroupResponse{
		StudyGroupID:     group.ID,
		Title:            group.Title,
		Description:      group.Description,
		Topic:            group.Topic,
		Region:           group.Region,
		IsOnline:         group.IsOnline,
		NumberOfRecruits: group.NumberOfRecruits,
		NumberOfMembers:  count,
		StartDateTime:    group.StudyPeriod.StartDateTime,
		EndDateTime:      group.StudyPeriod.EndDateTime,
		ImageURL:         group.ImageURL,
		ThumbnailURL:     group.ThumbnailURL,
		Leader:           leader[group.LeaderID],
	}, nil
}

func (s *StudyGroupService) UpdateStudyGroup(ctx context.Context, in StudyGroupChange) (int64, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Description) == "" {
		return 0, apperr.Newf(apperr.InvalidMethodArgument, "title and description are required")
	}
	if in.Image != nil {
		if err := storage.Validate(in.Image, s.maxUploadBytes); err != nil {
			return 0, err
		}
	}

	var stale, uploaded string
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		group, err := ledGroup(ctx, tx, in.ActorID, in.StudyGroupID)
		if err != nil {
			return err
		}

		group.Title = in.Title
		group.Description = in.Description
		if in.Image != nil {
			url, err := s.images.Upload(ctx, studyGroupImageDir, in.Image)
			if err != nil {
				return err
			}
			uploaded = url
			stale = group.ImageURL
			group.ImageURL = url
			group.ThumbnailURL = url
		}
		if err := tx.StudyGroups.Save(ctx, group); err != nil {
			return fmt.Errorf("save study group: %w", err)
		}
		return nil
	})
	if err != nil {
		if uploaded != "" {
			s.remover.Enqueue(uploaded)
		}
		return 0, err
	}
	if stale != "" {
		s.remover.Enqueue(stale)
	}
	return in.StudyGroupID, nil
}

// DeleteStudyGroup removes questions and memberships before the group itself.
func (s *StudyGroupService) DeleteStudyGroup(ctx context.Context, actorID, studyGroupID int64) error {
	var stale string
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		group, err := ledGroup(ctx, tx, actorID, studyGroupID)
		if err != nil {
			return err
		}
		if err := tx.Questions.DeleteByStudyGroupID(ctx, group.ID); err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}
		if err := tx.StudyGroupMembers.DeleteByStudyGroupID(ctx, group.ID); err != nil {
			return fmt.Errorf("delete members: %w", err)
		}
		if err := tx.StudyGroups.Delete(ctx, group.ID); err != nil {
			return fmt.Errorf("delete study group: %w", err)
		}
		stale = group.ImageURL
		return nil
	})
	if err != nil {
		return err
	}
	if stale != "" {
		s.remover.Enqueue(stale)
	}
	log.WithFields(log.Fields{"studyGroupId": studyGroupID, "actorId": actorID}).Info("Deleted study group")
	return nil
}

// ApplyStudyGroup registers memberID as an applicant. Recruitment closes when
// the study starts or every seat is taken.
func (s *StudyGroupService) ApplyStudyGroup(ctx context.Context, memberID, studyGroupID int64) (int64, error) {
	var applicationID int64
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		group, err := tx.StudyGroups.FindByID(ctx, studyGroupID)
		if err != nil {
			return notFound(err, apperr.StudyGroupNotFound)
		}
		if _, err := tx.Members.FindByID(ctx, memberID); err != nil {
			return notFound(err, apperr.MemberNotFound)
		}

		joined, err := tx.StudyGroupMembers.Exists(ctx, group.ID, memberID)
		if err != nil {
			return err
		}
		if joined {
			return apperr.New(apperr.ExistingStudyGroupMember)
		}
		if err := recruiting(ctx, tx, group, s.now()); err != nil {
			return err
		}

		application := &models.StudyGroupMember{
			StudyGroupID: group.ID,
			MemberID:     memberID,
			Role:         models.StudyApplicant,
		}
		if err := tx.StudyGroupMembers.Create(ctx, application); err != nil {
			return fmt.Errorf("create application: %w", err)
		}
		applicationID = application.ID
		return nil
	})
	return applicationID, err
}

// AcceptApplicant turns an applicant into a member. Only the leader may accept.
func (s *StudyGroupService) AcceptApplicant(ctx context.Context, actorID, studyGroupID, memberID int64) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		group, err := ledGroup(ctx, tx, actorID, studyGroupID)
		if err != nil {
			return err
		}
		application, err := tx.StudyGroupMembers.Find(ctx, group.ID, memberID)
		if err != nil {
			return notFound(err, apperr.StudyGroupMemberNotFound)
		}
		if application.Role != models.StudyApplicant {
			return apperr.New(apperr.ExistingStudyGroupMember)
		}
		if err := recruiting(ctx, tx, group, s.now()); err != nil {
			return err
		}
		return tx.StudyGroupMembers.UpdateRole(ctx, application.ID, models.StudyMember)
	})
}

func recruiting(ctx context.Context, tx *repository.Store, group *models.StudyGroup, now time.Time) error {
	if !now.Before(group.StudyPeriod.StartDateTime) {
		return apperr.New(apperr.RecruitmentIsClosed)
	}
	members, err := tx.StudyGroupMembers.CountByRoles(ctx, group.ID, models.StudyMember)
	if err != nil {
		return fmt.Errorf("count members: %w", err)
	}
	if members >= int64(group.NumberOfRecruits) {
		return apperr.New(apperr.RecruitmentIsClosed)
	}
	return nil
}

func ledGroup(ctx context.Context, tx *repository.Store, actorID, studyGroupID int64) (*models.StudyGroup, error) {
	group, err := tx.StudyGroups.FindByID(ctx, studyGroupID)
	if err != nil {
		return nil, notFound(err, apperr.StudyGroupNotFound)
	}
	if group.LeaderID != actorID {
		return nil, apperr.New(apperr.NotStudyLeader)
	}
	return group, nil
}
