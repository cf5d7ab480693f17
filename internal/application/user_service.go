package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-blog-api/internal/domain"
	"github.com/oksasatya/go-blog-api/internal/domain/entity"
	"github.com/oksasatya/go-blog-api/internal/domain/policy"
	repo "github.com/oksasatya/go-blog-api/internal/domain/repository"
	"github.com/oksasatya/go-blog-api/pkg/helpers"
)

// UserService is the account kernel: registration, sessions, profile updates,
// verification and recovery.
type UserService struct {
	Repo     repo.UserRepository
	Settings Settings
	Mailer   Mailer
	Images   ImageTransformer
	Sessions SessionCache
	Logger   *logrus.Logger
	Now      func() time.Time
}

func NewUserService(repo repo.UserRepository, settings Settings, mailer Mailer, images ImageTransformer, sessions SessionCache, logger *logrus.Logger) *UserService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &UserService{
		Repo:     repo,
		Settings: settings,
		Mailer:   mailer,
		Images:   images,
		Sessions: sessions,
		Logger:   logger,
		Now:      time.Now,
	}
}

func (s *UserService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// UserSelector picks a user by exactly one field.
type UserSelector struct {
	Username string
	ID       string
	APIKey   string
	Email    string
}

func (sel UserSelector) count() int {
	return lo.CountBy([]string{sel.Username, sel.ID, sel.APIKey, sel.Email}, func(v string) bool { return v != "" })
}

// FindUser resolves the full internal record, hash and tokens included.
// It must never be returned across the boundary unredacted.
func (s *UserService) FindUser(ctx context.Context, sel UserSelector) (*entity.User, error) {
	switch n := sel.count(); {
	case n == 0:
		return nil, domain.ErrMissingArguments
	case n > 1:
		return nil, domain.ErrTooManyArguments
	}

	var (
		u   *entity.User
		err error
	)
	switch {
	case sel.APIKey != "":
		return s.findByAPIKey(ctx, sel.APIKey)
	case sel.Username != "":
		u, err = s.Repo.GetByUsername(ctx, sel.Username)
	case sel.ID != "":
		u, err = s.Repo.GetByID(ctx, sel.ID)
	default:
		u, err = s.Repo.GetByEmail(ctx, sel.Email)
	}
	if err != nil {
		return nil, userLookupErr(err)
	}
	return u, nil
}

func (s *UserService) findByAPIKey(ctx context.Context, token string) (*entity.User, error) {
	now := s.now()
	if s.Sessions != nil {
		uid, ok, err := s.Sessions.Get(ctx, token)
		if err != nil {
			s.Logger.WithError(err).Warn("session cache lookup failed")
		}
		if ok {
			u, err := s.Repo.GetByID(ctx, uid)
			if err == nil && u.HasValidKey(token, now) {
				return u, nil
			}
			if err != nil && !errors.Is(err, repo.ErrNotFound) {
				return nil, err
			}
			s.evictSession(ctx, token)
		}
	}

	u, err := s.Repo.GetByAPIKey(ctx, token, now)
	if err != nil {
		return nil, userLookupErr(err)
	}
	s.cacheSession(ctx, u, token)
	return u, nil
}

func (s *UserService) cacheSession(ctx context.Context, u *entity.User, token string) {
	if s.Sessions == nil {
		return
	}
	k, ok := u.Key(token)
	if !ok {
		return
	}
	if err := s.Sessions.Set(ctx, token, u.ID, k.ExpiresAt); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("session cache store failed")
	}
}

func (s *UserService) evictSession(ctx context.Context, token string) {
	if s.Sessions == nil {
		return
	}
	if err := s.Sessions.Delete(ctx, token); err != nil {
		s.Logger.WithError(err).Warn("session cache evict failed")
	}
}

func userLookupErr(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return domain.ErrUserNotFound
	}
	return err
}

// Actor resolves the acting user of a mutating call. The apikey is mandatory
// and the account must be active.
func (s *UserService) Actor(ctx context.Context, apikey string) (*entity.User, error) {
	if apikey == "" {
		return nil, domain.ErrMissingArguments
	}
	u, err := s.FindUser(ctx, UserSelector{APIKey: apikey})
	if err != nil {
		return nil, err
	}
	if err := policy.RequireActive(u); err != nil {
		return nil, err
	}
	return u, nil
}

// Viewer resolves an optional caller for read paths. Any failure yields nil.
func (s *UserService) Viewer(ctx context.Context, apikey string) *entity.User {
	if apikey == "" {
		return nil
	}
	u, err := s.FindUser(ctx, UserSelector{APIKey: apikey})
	if err != nil {
		return nil
	}
	return u
}

type GetUserInput struct {
	Username string
	ID       string
	APIKey   string
}

// GetUser returns a redacted user. Email is only shown to the user itself or an
// active administrator. With only an apikey the caller's own record is returned.
func (s *UserService) GetUser(ctx context.Context, in GetUserInput) (*UserView, error) {
	if in.Username == "" && in.ID == "" {
		if in.APIKey == "" {
			return nil, domain.ErrMissingArguments
		}
		self, err := s.FindUser(ctx, UserSelector{APIKey: in.APIKey})
		if err != nil {
			return nil, err
		}
		return redact(self, policy.CanSeePrivate(self, self.ID)), nil
	}

	target, err := s.FindUser(ctx, UserSelector{Username: in.Username, ID: in.ID})
	if err != nil {
		return nil, err
	}
	var caller *entity.User
	if in.APIKey != "" {
		if caller, err = s.FindUser(ctx, UserSelector{APIKey: in.APIKey}); err != nil {
			return nil, err
		}
	}
	return redact(target, policy.CanSeePrivate(caller, target.ID)), nil
}

type RegisterInput struct {
	Username string
	Password string
	Fullname string
	Email    string
}

// NewUser builds an account value without touching storage.
func NewUser(in RegisterInput, hash string, key entity.APIKey, now time.Time, verify bool) *entity.User {
	return &entity.User{
		ID:           helpers.NewID(),
		Username:     in.Username,
		Fullname:     in.Fullname,
		Email:        in.Email,
		About:        entity.DefaultAbout,
		PasswordHash: hash,
		APIKeys:      []entity.APIKey{key},
		Permissions:  []entity.Permission{entity.PermissionComment},
		Deactivated:  verify,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Register creates an account with the comment permission. When email
// verification is on the account starts deactivated and the initial apikey is
// only delivered by mail.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*UserView, error) {
	if in.Username == "" && in.Password == "" && in.Fullname == "" && in.Email == "" {
		return nil, domain.ErrMissingArguments
	}
	if in.Username == "" || in.Password == "" || in.Fullname == "" || in.Email == "" {
		return nil, domain.ErrPartialArguments
	}

	if _, err := s.Repo.GetByUsername(ctx, in.Username); err == nil {
		return nil, domain.ErrUserAlreadyExists
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	hash, err := helpers.HashPassword(in.Password, s.Settings.BcryptCost)
	if err != nil {
		return nil, err
	}
	now := s.now()
	key, err := helpers.NewAPIKey(now, s.Settings.APIKeyTTL)
	if err != nil {
		return nil, err
	}
	u := NewUser(in, hash, key, now, s.Settings.EmailVerification)
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, domain.ErrUserAlreadyExists
		}
		return nil, err
	}
	s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "username": u.Username}).Info("user registered")

	out := redact(u, true)
	if s.Settings.EmailVerification {
		s.sendAsync(ctx, u, key.Token, "verification", s.mailVerification)
	} else {
		out.APIKey = key.Token
	}
	return out, nil
}

type LoginInput struct {
	Username string
	Password string
	APIKey   string
}

// Login authenticates by apikey or by username and password. A valid apikey is
// reused; a password login appends a freshly minted key.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*UserView, error) {
	switch {
	case in.APIKey != "" && (in.Username != "" || in.Password != ""):
		return nil, domain.ErrTooManyArguments
	case in.APIKey == "" && in.Username == "" && in.Password == "":
		return nil, domain.ErrMissingArguments
	case in.APIKey == "" && (in.Username == "" || in.Password == ""):
		return nil, domain.ErrPartialArguments
	}

	if in.APIKey != "" {
		u, err := s.FindUser(ctx, UserSelector{APIKey: in.APIKey})
		if err != nil {
			return nil, err
		}
		if u.Deactivated {
			return nil, domain.ErrUserDeactivated
		}
		out := redact(u, true)
		out.APIKey = in.APIKey
		return out, nil
	}

	u, err := s.FindUser(ctx, UserSelector{Username: in.Username})
	if err != nil {
		return nil, err
	}
	if u.Deactivated {
		return nil, domain.ErrUserDeactivated
	}
	if !helpers.CompareHashAndPassword(u.PasswordHash, in.Password) {
		return nil, domain.ErrWrongPassword
	}
	key, err := s.mintKey(ctx, u)
	if err != nil {
		return nil, err
	}
	out := redact(u, true)
	out.APIKey = key.Token
	return out, nil
}

func (s *UserService) mintKey(ctx context.Context, u *entity.User) (entity.APIKey, error) {
	key, err := helpers.NewAPIKey(s.now(), s.Settings.APIKeyTTL)
	if err != nil {
		return entity.APIKey{}, err
	}
	if err := s.Repo.AddAPIKey(ctx, u.ID, key); err != nil {
		return entity.APIKey{}, userLookupErr(err)
	}
	u.APIKeys = append(u.APIKeys, key)
	s.cacheSession(ctx, u, key.Token)
	return key, nil
}

// Logout expires exactly the given key. The user's other keys stay valid.
func (s *UserService) Logout(ctx context.Context, apikey string) (bool, error) {
	if apikey == "" {
		return false, domain.ErrMissingArguments
	}
	if _, err := s.FindUser(ctx, UserSelector{APIKey: apikey}); err != nil {
		return false, err
	}
	s.evictSession(ctx, apikey)
	if err := s.Repo.ExpireAPIKey(ctx, apikey, s.now()); err != nil {
		return false, userLookupErr(err)
	}
	return true, nil
}

type UpdateUserInput struct {
	APIKey         string
	ID             string
	Fullname       *string
	Email          *string
	Password       *string
	About          *string
	ProfilePicture *string
	Permissions    []entity.Permission // nil leaves permissions untouched
	Deactivated    *bool
}

// UpdateUser applies only the supplied fields. The caller must be the target or
// an administrator; changing permissions requires administrate.
func (s *UserService) UpdateUser(ctx context.Context, in UpdateUserInput) (*UserView, error) {
	if in.APIKey == "" || in.ID == "" {
		return nil, domain.ErrMissingArguments
	}
	actor, err := s.Actor(ctx, in.APIKey)
	if err != nil {
		return nil, err
	}
	if _, err := s.FindUser(ctx, UserSelector{ID: in.ID}); err != nil {
		return nil, err
	}
	if err := policy.RequireSelfOrAdmin(actor, in.ID); err != nil {
		return nil, err
	}
	if in.Permissions != nil {
		if err := policy.RequirePermission(actor, entity.PermissionAdministrate); err != nil {
			return nil, err
		}
		for _, p := range in.Permissions {
			if !p.Valid() {
				return nil, domain.InvalidArgument("permissions", string(p))
			}
		}
	}

	var hash string
	if in.Password != nil && *in.Password != "" {
		if hash, err = helpers.HashPassword(*in.Password, s.Settings.BcryptCost); err != nil {
			return nil, err
		}
	}
	var picture string
	if in.ProfilePicture != nil && *in.ProfilePicture != "" {
		if s.Images == nil {
			return nil, domain.InvalidArgument("profilePicture", "uploads disabled")
		}
		if picture, err = s.Images.Transform(ctx, in.ID, *in.ProfilePicture); err != nil {
			return nil, err
		}
	}

	var updated *entity.User
	err = retryOnConflict(func() error {
		current, err := s.Repo.GetByID(ctx, in.ID)
		if err != nil {
			return userLookupErr(err)
		}
		next := current.Clone()
		applyUserChanges(next, in, hash, picture)
		next.UpdatedAt = s.now()
		if err := s.Repo.Update(ctx, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Logger.WithFields(logrus.Fields{"user_id": updated.ID, "actor_id": actor.ID}).Info("user updated")
	return redact(updated, true), nil
}

func applyUserChanges(u *entity.User, in UpdateUserInput, hash, picture string) {
	if in.Permissions != nil {
		u.Permissions = lo.Uniq(in.Permissions)
	}
	if in.Fullname != nil && *in.Fullname != "" {
		u.Fullname = *in.Fullname
	}
	if in.Email != nil && *in.Email != "" {
		u.Email = *in.Email
	}
	if in.Deactivated != nil {
		u.Deactivated = *in.Deactivated
	}
	if hash != "" {
		u.PasswordHash = hash
	}
	if in.About != nil {
		u.About = *in.About
	}
	if picture != "" {
		u.ProfilePicture = picture
	}
}

// GetAllUsers lists every account except the caller. Administrators only.
func (s *UserService) GetAllUsers(ctx context.Context, apikey string) ([]*UserView, error) {
	actor, err := s.Actor(ctx, apikey)
	if err != nil {
		return nil, err
	}
	if err := policy.RequirePermission(actor, entity.PermissionAdministrate); err != nil {
		return nil, err
	}
	users, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*UserView, 0, len(users))
	for _, u := range users {
		if u.ID == actor.ID {
			continue
		}
		out = append(out, redact(u, true))
	}
	return out, nil
}

// VerifyUser redeems an email verification token: the account becomes active
// and verified, and the token used is expired. Already verified accounts are left alone.
func (s *UserService) VerifyUser(ctx context.Context, apikey string) error {
	if apikey == "" {
		return domain.ErrMissingArguments
	}
	u, err := s.FindUser(ctx, UserSelector{APIKey: apikey})
	if err != nil {
		return err
	}
	if u.EmailVerified {
		return nil
	}
	if _, err := s.Repo.MarkVerified(ctx, u.ID); err != nil {
		return userLookupErr(err)
	}
	s.Logger.WithField("user_id", u.ID).Info("email verified")
	_, err = s.Logout(ctx, apikey)
	return err
}

// RecoverPassword mails a fresh apikey to the owner of a verified email address.
func (s *UserService) RecoverPassword(ctx context.Context, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return false, domain.ErrMissingArguments
	}
	u, err := s.FindUser(ctx, UserSelector{Email: email})
	if err != nil {
		return false, err
	}
	if !u.EmailVerified || u.Deactivated {
		return false, domain.ErrUserDeactivated
	}
	key, err := s.mintKey(ctx, u)
	if err != nil {
		return false, err
	}
	s.sendAsync(ctx, u, key.Token, "recovery", s.mailRecovery)
	return true, nil
}

func (s *UserService) mailVerification(ctx context.Context, u *entity.User, token string) error {
	return s.Mailer.SendVerification(ctx, u, token)
}

func (s *UserService) mailRecovery(ctx context.Context, u *entity.User, token string) error {
	return s.Mailer.SendRecovery(ctx, u, token)
}

// sendAsync hands mail to the collaborator without waiting for it.
func (s *UserService) sendAsync(ctx context.Context, u *entity.User, token, kind string, send func(context.Context, *entity.User, string) error) {
	if s.Mailer == nil {
		s.Logger.WithField("user_id", u.ID).Warnf("no mailer configured, %s mail dropped", kind)
		return
	}
	ctx = context.WithoutCancel(ctx)
	snapshot := u.Clone()
	go func() {
		if err := send(ctx, snapshot, token); err != nil {
			s.Logger.WithError(err).WithFields(logrus.Fields{"user_id": snapshot.ID, "mail": kind}).Warn("mail enqueue failed")
		}
	}()
}
