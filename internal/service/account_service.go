package service

import (
	"context"
	"strings"

	"artfeed/internal/cache"
	"artfeed/internal/models"
	"artfeed/internal/observability"
	"artfeed/internal/repository"
	"artfeed/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AccountService owns user and profile writes. It is the only writer of
// User.Email and Profile.Email and keeps the two equal.
type AccountService struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
	posts    repository.PostRepository
	tx       repository.AccountTx
}

type SignupInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileInput carries the editable profile fields. Nil fields are left unchanged.
type UpdateProfileInput struct {
	UserID   uint    `json:"-"`
	RealName *string `json:"realname" validate:"omitempty,max=20"`
	Location *string `json:"location" validate:"omitempty,max=20"`
	Bio      *string `json:"bio" validate:"omitempty,max=500"`
	Email    *string `json:"email" validate:"omitempty,email,max=254"`
}

func NewAccountService(
	users repository.UserRepository,
	profiles repository.ProfileRepository,
	posts repository.PostRepository,
	tx repository.AccountTx,
) *AccountService {
	return &AccountService{
		users:    users,
		profiles: profiles,
		posts:    posts,
		tx:       tx,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates the user and its profile in one transaction. The profile
// starts with the user's email, so no convergence step is needed.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)

	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashed),
	}
	err = s.tx.InTx(ctx, func(repos repository.AccountRepos) error {
		if err := repos.Users.Create(ctx, user); err != nil {
			return err
		}
		profile := &models.Profile{UserID: user.ID, Email: user.Email}
		if err := repos.Profiles.Create(ctx, profile); err != nil {
			return err
		}
		user.Profile = profile
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login returns the user for valid credentials.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

// UpdateUserEmail saves the user's email and converges the profile onto it.
func (s *AccountService) UpdateUserEmail(ctx context.Context, userID uint, email string) (*models.User, error) {
	email = normalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	var user *models.User
	err := s.tx.InTx(ctx, func(repos repository.AccountRepos) error {
		var err error
		user, err = repos.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		user.Email = email
		if err := repos.Users.Update(ctx, user); err != nil {
			return err
		}
		_, err = convergeEmail(ctx, repos, syncFromUser, userID, user.Email)
		return err
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateAccount(ctx, user.ID, user.Username)
	return user, nil
}

// UpdateProfile saves the profile fields and converges the user's email onto
// the profile's.
func (s *AccountService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.ProfileView, error) {
	if in.Email != nil {
		e := normalizeEmail(*in.Email)
		in.Email = &e
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var profile *models.Profile
	err := s.tx.InTx(ctx, func(repos repository.AccountRepos) error {
		var err error
		profile, err = repos.Profiles.GetByUserID(ctx, in.UserID)
		if err != nil {
			return err
		}
		applyProfileInput(profile, in)
		if err := repos.Profiles.Update(ctx, profile); err != nil {
			return err
		}
		wrote, err := convergeEmail(ctx, repos, syncFromProfile, in.UserID, profile.Email)
		if err != nil {
			return err
		}
		if wrote && profile.User != nil {
			profile.User.Email = profile.Email
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	username := ""
	if profile.User != nil {
		username = profile.User.Username
	}
	cache.InvalidateAccount(ctx, in.UserID, username)
	return models.NewOwnProfileView(profile), nil
}

func applyProfileInput(p *models.Profile, in UpdateProfileInput) {
	if in.RealName != nil {
		p.RealName = strings.TrimSpace(*in.RealName)
	}
	if in.Location != nil {
		p.Location = strings.TrimSpace(*in.Location)
	}
	if in.Bio != nil {
		p.Bio = validation.Sanitize(*in.Bio)
	}
	if in.Email != nil && *in.Email != "" {
		p.Email = *in.Email
	}
}

type syncDirection string

const (
	syncFromUser    syncDirection = "user_to_profile"
	syncFromProfile syncDirection = "profile_to_user"
)

// convergeEmail copies email onto the counterpart of the side that was just
// saved and reports whether it wrote. It compares before writing and only
// calls repository writes, never the service write paths, so a converged
// pair stays put. A missing counterpart is a NOT_FOUND that aborts the
// surrounding transaction.
func convergeEmail(ctx context.Context, repos repository.AccountRepos, dir syncDirection, userID uint, email string) (bool, error) {
	log := observability.FromContext(ctx).With(zap.String("direction", string(dir)), zap.Uint("target_user_id", userID))

	switch dir {
	case syncFromUser:
		profile, err := repos.Profiles.GetByUserID(ctx, userID)
		if err != nil {
			return false, recordSyncFailure(log, dir, err)
		}
		if profile.Email == email {
			observability.EmailSync.WithLabelValues(string(dir), "in_sync").Inc()
			return false, nil
		}
		profile.Email = email
		if err := repos.Profiles.Update(ctx, profile); err != nil {
			return false, recordSyncFailure(log, dir, err)
		}

	case syncFromProfile:
		user, err := repos.Users.GetByID(ctx, userID)
		if err != nil {
			return false, recordSyncFailure(log, dir, err)
		}
		if user.Email == email {
			observability.EmailSync.WithLabelValues(string(dir), "in_sync").Inc()
			return false, nil
		}
		user.Email = email
		if err := repos.Users.Update(ctx, user); err != nil {
			return false, recordSyncFailure(log, dir, err)
		}
	}

	observability.EmailSync.WithLabelValues(string(dir), "written").Inc()
	log.Debug("email converged")
	return true, nil
}

func recordSyncFailure(log *zap.Logger, dir syncDirection, err error) error {
	outcome := "error"
	if models.IsNotFound(err) {
		outcome = "missing_counterpart"
		log.Warn("email sync counterpart missing", zap.Error(err))
	}
	observability.EmailSync.WithLabelValues(string(dir), outcome).Inc()
	return err
}

// GetProfile returns the caller's profile.
func (s *AccountService) GetProfile(ctx context.Context, userID uint) (*models.ProfileView, error) {
	var profile models.Profile
	err := cache.Aside(ctx, cache.ProfileKey(userID), &profile, cache.ProfileTTL, func() error {
		p, err := s.profiles.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		profile = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return models.NewOwnProfileView(&profile), nil
}

// GetProfileByUsername returns the public profile of username with its newest posts.
func (s *AccountService) GetProfileByUsername(ctx context.Context, username string, currentUserID uint) (*models.ProfileView, error) {
	var profile models.Profile
	err := cache.Aside(ctx, cache.ProfileByNameKey(username), &profile, cache.ProfileTTL, func() error {
		user, err := s.users.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		if user == nil {
			return models.NewNotFoundError("User", username)
		}
		p, err := s.profiles.GetByUserID(ctx, user.ID)
		if err != nil {
			return err
		}
		profile = *p
		return nil
	})
	if err != nil {
		return nil, err
	}

	view := models.NewProfileView(&profile)
	posts, err := s.posts.GetByUserID(ctx, profile.UserID, defaultPageSize, 0, currentUserID)
	if err != nil {
		return nil, err
	}
	view.Posts = posts
	return view, nil
}

// DeleteAccount removes the user, its profile and everything it authored.
func (s *AccountService) DeleteAccount(ctx context.Context, userID uint) error {
	var username string
	err := s.tx.InTx(ctx, func(repos repository.AccountRepos) error {
		user, err := repos.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		username = user.Username
		if err := repos.Content.RemoveByUser(ctx, userID); err != nil {
			return err
		}
		if err := repos.Profiles.DeleteByUserID(ctx, userID); err != nil {
			return err
		}
		return repos.Users.Delete(ctx, userID)
	})
	if err != nil {
		return err
	}

	cache.InvalidateAccount(ctx, userID, username)
	cache.InvalidatePostsList(ctx)
	return nil
}

// IsAdmin reports whether userID has admin rights.
func (s *AccountService) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}
