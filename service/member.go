package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"stuti/apperr"
	"stuti/auth"
	"stuti/models"
	"stuti/repository"

	log "github.com/sirupsen/logrus"
)

type Signup struct {
	Email           string
	Password        string
	Nickname        string
	Career          models.Career
	Field           models.Field
	Mbti            models.Mbti
	ProfileImageURL string
	GithubURL       string
	BlogURL         string
}

// ProfileChange edits the member's page. Empty nickname and enum fields keep
// their value. A nil URL keeps the current one and an empty URL clears it.
type ProfileChange struct {
	ActorID         int64
	MemberID        int64
	Nickname        string
	Career          models.Career
	Field           models.Field
	Mbti            models.Mbti
	ProfileImageURL *string
	GithubURL       *string
	BlogURL         *string
}

type ProfileResponse struct {
	MemberID        int64         `json:"memberId"`
	Email           string        `json:"email"`
	Nickname        string        `json:"nickname"`
	Career          models.Career `json:"career"`
	Field           models.Field  `json:"field"`
	Mbti            models.Mbti   `json:"mbti"`
	ProfileImageURL string        `json:"profileImageUrl"`
	GithubURL       string        `json:"githubUrl"`
	BlogURL         string        `json:"blogUrl"`
	Role            string        `json:"role"`
}

type TokenResponse struct {
	MemberID    int64     `json:"memberId"`
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type MemberService struct {
	store     *repository.Store
	tokens    *auth.TokenManager
	blacklist *auth.Blacklist
}

func NewMemberService(store *repository.Store, tokens *auth.TokenManager, blacklist *auth.Blacklist) *MemberService {
	return &MemberService{store: store, tokens: tokens, blacklist: blacklist}
}

func (s *MemberService) Signup(ctx context.Context, in Signup) (int64, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return 0, apperr.Wrap(apperr.InvalidEmail, err)
	}
	if strings.TrimSpace(in.Nickname) == "" || len(in.Password) < 8 {
		return 0, apperr.Newf(apperr.InvalidMethodArgument, "nickname required and password of at least 8 characters")
	}
	if err := validateProfileEnums(in.Career, in.Field, in.Mbti); err != nil {
		return 0, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return 0, err
	}

	var memberID int64
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		registered, err := tx.Members.ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if registered {
			return apperr.New(apperr.RegisteredMember)
		}
		taken, err := tx.Members.ExistsByNickname(ctx, in.Nickname, 0)
		if err != nil {
			return err
		}
		if taken {
			return apperr.New(apperr.NicknameDuplication)
		}

		member := &models.Member{
			Email:           email,
			Password:        hash,
			Nickname:        in.Nickname,
			Career:          in.Career,
			Field:           in.Field,
			Mbti:            in.Mbti,
			ProfileImageURL: in.ProfileImageURL,
			GithubURL:       in.GithubURL,
			BlogURL:         in.BlogURL,
			Role:            models.RoleMember,
		}
		if err := tx.Members.Create(ctx, member); err != nil {
			return fmt.Errorf("create member: %w", err)
		}
		memberID = member.ID
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.WithField("memberId", memberID).Info("Member signed up")
	return memberID, nil
}

func (s *MemberService) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	member, err := s.store.Members.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, notFound(err, apperr.InvalidCredentials)
	}
	if !auth.CheckPassword(member.Password, password) {
		return nil, apperr.New(apperr.InvalidCredentials)
	}

	token, expires, err := s.tokens.Issue(member.ID, string(member.Role))
	if err != nil {
		return nil, err
	}
	return &TokenResponse{MemberID: member.ID, AccessToken: token, ExpiresAt: expires}, nil
}

// Logout blacklists the token until it expires.
func (s *MemberService) Logout(ctx context.Context, token string, expires time.Time) error {
	return s.blacklist.Add(ctx, token, expires)
}

func (s *MemberService) GetProfile(ctx context.Context, memberID int64) (*ProfileResponse, error) {
	member, err := s.store.Members.FindByID(ctx, memberID)
	if err != nil {
		return nil, notFound(err, apperr.MemberNotFound)
	}
	return toProfile(member), nil
}

func (s *MemberService) UpdateProfile(ctx context.Context, in ProfileChange) (*ProfileResponse, error) {
	if in.ActorID != in.MemberID {
		return nil, apperr.New(apperr.NotMatchMyPage)
	}
	if err := validateProfileEnums(in.Career, in.Field, in.Mbti); err != nil {
		return nil, err
	}

	var updated *models.Member
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		member, err := tx.Members.FindByID(ctx, in.MemberID)
		if err != nil {
			return notFound(err, apperr.MemberNotFound)
		}

		if in.Nickname != "" && in.Nickname != member.Nickname {
			taken, err := tx.Members.ExistsByNickname(ctx, in.Nickname, member.ID)
			if err != nil {
				return err
			}
			if taken {
				return apperr.New(apperr.NicknameDuplication)
			}
			member.Nickname = in.Nickname
		}
		if in.Career != "" {
			member.Career = in.Career
		}
		if in.Field != "" {
			member.Field = in.Field
		}
		if in.Mbti != "" {
			member.Mbti = in.Mbti
		}
		if in.ProfileImageURL != nil {
			member.ProfileImageURL = *in.ProfileImageURL
		}
		if in.GithubURL != nil {
			member.GithubURL = *in.GithubURL
		}
		if in.BlogURL != nil {
			member.BlogURL = *in.BlogURL
		}

		if err := tx.Members.Save(ctx, member); err != nil {
			return fmt.Errorf("save member: %w", err)
		}
		updated = member
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toProfile(updated), nil
}

func validateProfileEnums(career models.Career, field models.Field, mbti models.Mbti) error {
	if career != "" && !career.Valid() {
		return apperr.Newf(apperr.InvalidMethodArgument, "unknown career %q", career)
	}
	if field != "" && !field.Valid() {
		return apperr.Newf(apperr.InvalidMethodArgument, "unknown field %q", field)
	}
	if mbti != "" && !mbti.Valid() {
		return apperr.Newf(apperr.InvalidMethodArgument, "unknown mbti %q", mbti)
	}
	return nil
}

func toProfile(m *models.Member) *ProfileResponse {
	return &ProfileResponse{
		MemberID:        m.ID,
		Email:           m.Email,
		Nickname:        m.Nickname,
		Career:          m.Career,
		Field:           m.Field,
		Mbti:            m.Mbti,
		ProfileImageURL: m.ProfileImageURL,
		GithubURL:       m.GithubURL,
		BlogURL:         m.BlogURL,
		Role:            string(m.Role),
	}
}
