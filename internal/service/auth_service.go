package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"jobportal/internal/domain"
	"jobportal/internal/email"
	"jobportal/internal/repository"
)

const (
	minPasswordLength    = 8
	maxPasswordLength    = 128
	passwordSpecials     = "@$!%*?&"
	defaultEmailTimeout  = 15 * time.Second
	placeholderHashBytes = 32
)

// AuthDeps agrupa los colaboradores del orquestador.
type AuthDeps struct {
	Logger     *zap.Logger
	Users      repository.UserRepository
	Hasher     PasswordHasher
	Tokens     TokenIssuer
	OTP        OTPEngine
	Resets     ResetEngine
	Identity   IdentityVerifier
	Mailer     email.Sender
	OTPLimiter OTPRateLimiter
}

// AuthSettings son los parametros de configuracion del orquestador.
type AuthSettings struct {
	FrontendURL  string
	AccessTTL    time.Duration
	OTPTTL       time.Duration
	EmailTimeout time.Duration
}

// AuthResult es lo que recibe el cliente tras iniciar sesion.
type AuthResult struct {
	Tokens TokenPair   `json:"tokens"`
	User   domain.User `json:"user"`
}

type RegisterInput struct {
	Email    string
	Password string
	Role     domain.Role
	Name     string
}

// AuthService orquesta registro, login, rotacion de sesiones, reseteo de
// contraseña y verificacion por OTP.
type AuthService struct {
	logger     *zap.Logger
	users      repository.UserRepository
	hasher     PasswordHasher
	tokens     TokenIssuer
	otp        OTPEngine
	resets     ResetEngine
	identity   IdentityVerifier
	mailer     email.Sender
	otpLimiter OTPRateLimiter
	validate   *validator.Validate

	frontendURL  string
	accessTTL    time.Duration
	otpTTL       time.Duration
	emailTimeout time.Duration
	now          func() time.Time

	pending sync.WaitGroup
}

func NewAuthService(deps AuthDeps, settings AuthSettings) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.AccessTTL <= 0 {
		settings.AccessTTL = 15 * time.Minute
	}
	if settings.OTPTTL <= 0 {
		settings.OTPTTL = defaultOTPTTL
	}
	if settings.EmailTimeout <= 0 {
		settings.EmailTimeout = defaultEmailTimeout
	}
	return &AuthService{
		logger:       logger,
		users:        deps.Users,
		hasher:       deps.Hasher,
		tokens:       deps.Tokens,
		otp:          deps.OTP,
		resets:       deps.Resets,
		identity:     deps.Identity,
		mailer:       deps.Mailer,
		otpLimiter:   deps.OTPLimiter,
		validate:     validator.New(),
		frontendURL:  strings.TrimRight(settings.FrontendURL, "/"),
		accessTTL:    settings.AccessTTL,
		otpTTL:       settings.OTPTTL,
		emailTimeout: settings.EmailTimeout,
		now:          time.Now,
	}
}

// Wait bloquea hasta que terminen los envios de correo en curso.
func (s *AuthService) Wait() {
	s.pending.Wait()
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	emailAddr := normalizeEmail(in.Email)
	if err := s.checkEmail(emailAddr); err != nil {
		return AuthResult{}, err
	}
	if err := validatePassword(in.Password); err != nil {
		return AuthResult{}, err
	}
	role := in.Role
	if role == "" {
		role = domain.RoleSeeker
	}
	if role != domain.RoleSeeker && role != domain.RoleCompany {
		return AuthResult{}, domain.ErrInvalidRole
	}

	if _, err := s.users.GetByEmail(ctx, emailAddr); err == nil {
		return AuthResult{}, domain.ErrEmailTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return AuthResult{}, fmt.Errorf("lookup user: %w", err)
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Email:        emailAddr,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return AuthResult{}, err
		}
		return AuthResult{}, fmt.Errorf("create user: %w", err)
	}

	result, err := s.startSession(ctx, user)
	if err != nil {
		return AuthResult{}, err
	}

	s.sendVerificationOTP(ctx, emailAddr)
	s.sendWelcome(ctx, emailAddr, user.Name)
	return result, nil
}

func (s *AuthService) Login(ctx context.Context, emailAddr, password string) (AuthResult, error) {
	user, err := s.authenticate(ctx, emailAddr, password)
	if err != nil {
		return AuthResult{}, err
	}
	if user.IsBlocked {
		return AuthResult{}, domain.ErrUserBlocked
	}
	if user.Role == domain.RoleAdmin {
		return AuthResult{}, domain.ErrAdminLoginRequired
	}
	if !user.IsVerified {
		s.sendVerificationOTP(ctx, user.Email)
	}
	return s.startSession(ctx, user)
}

func (s *AuthService) AdminLogin(ctx context.Context, emailAddr, password string) (AuthResult, error) {
	user, err := s.authenticate(ctx, emailAddr, password)
	if err != nil {
		return AuthResult{}, err
	}
	if user.IsBlocked {
		return AuthResult{}, domain.ErrUserBlocked
	}
	if user.Role != domain.RoleAdmin {
		return AuthResult{}, domain.ErrNotAdmin
	}
	if !user.IsVerified {
		s.sendVerificationOTP(ctx, user.Email)
	}
	return s.startSession(ctx, user)
}

// RefreshToken rota la sesion. Solo acepta el ultimo refresh token emitido.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (AuthResult, error) {
	payload, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return AuthResult{}, domain.ErrInvalidRefreshToken
	}
	user, err := s.findUser(ctx, payload.Sub)
	if err != nil {
		return AuthResult{}, err
	}
	if !user.HasSession() || !s.hasher.Compare(refreshToken, *user.RefreshTokenHash) {
		return AuthResult{}, domain.ErrInvalidRefreshToken
	}
	if user.IsBlocked {
		return AuthResult{}, domain.ErrUserBlocked
	}
	return s.startSession(ctx, user)
}

// Logout borra el hash del refresh token. Es idempotente.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	err := s.users.UpdateRefreshToken(ctx, userID, nil)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

func (s *AuthService) LoginWithGoogle(ctx context.Context, idToken string) (AuthResult, error) {
	if s.identity == nil {
		return AuthResult{}, domain.ErrInvalidIdentityToken
	}
	profile, err := s.identity.VerifyIDToken(ctx, idToken)
	if err != nil {
		if errors.Is(err, domain.ErrAuthentication) {
			return AuthResult{}, err
		}
		return AuthResult{}, domain.ErrInvalidIdentityToken
	}
	emailAddr := normalizeEmail(profile.Email)
	if err := s.checkEmail(emailAddr); err != nil {
		return AuthResult{}, domain.ErrInvalidIdentityToken
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if errors.Is(err, pgx.ErrNoRows) {
		user, err = s.createExternalUser(ctx, emailAddr, profile)
	}
	if err != nil {
		return AuthResult{}, fmt.Errorf("resolve google user: %w", err)
	}

	if user.IsBlocked {
		return AuthResult{}, domain.ErrUserBlocked
	}
	if !user.IsVerified {
		s.sendVerificationOTP(ctx, user.Email)
	}
	return s.startSession(ctx, user)
}

// createExternalUser crea la cuenta de un login federado. El hash de
// contraseña proviene de bytes aleatorios descartados, asi que el login por
// contraseña queda inutilizable.
func (s *AuthService) createExternalUser(ctx context.Context, emailAddr string, profile IdentityProfile) (domain.User, error) {
	secret := make([]byte, placeholderHashBytes)
	if _, err := rand.Read(secret); err != nil {
		return domain.User{}, err
	}
	placeholder, err := s.hasher.Hash(hex.EncodeToString(secret))
	if err != nil {
		return domain.User{}, err
	}

	now := s.now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(profile.Name),
		Email:        emailAddr,
		PasswordHash: placeholder,
		Role:         domain.RoleSeeker,
		IsVerified:   profile.EmailVerified,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.users.Create(ctx, user)
	if errors.Is(err, domain.ErrEmailTaken) {
		// otro request creo la cuenta primero
		return s.users.GetByEmail(ctx, emailAddr)
	}
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// ForgotPassword genera un token de reseteo y envia el enlace. Devuelve
// domain.ErrEmailNotFound si el correo no existe; el llamador decide si lo expone.
func (s *AuthService) ForgotPassword(ctx context.Context, emailAddr string) error {
	emailAddr = normalizeEmail(emailAddr)
	if err := s.checkEmail(emailAddr); err != nil {
		return err
	}
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrEmailNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	token, err := s.resets.GenerateResetToken(ctx, user.ID, user.Email)
	if err != nil {
		return err
	}
	link := s.resets.ResetLink(token)
	s.dispatch(ctx, "password_reset", user.Email, func(ctx context.Context) error {
		msg, err := email.PasswordReset(link, resetTokenTTL)
		if err != nil {
			return err
		}
		return s.mailer.SendMail(ctx, user.Email, msg.Subject, msg.HTML)
	})
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	ticket, err := s.resets.GetResetToken(ctx, token)
	if err != nil {
		return err
	}
	if ticket == nil {
		return domain.ErrInvalidResetToken
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, ticket.UserID, passwordHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}
	return s.resets.InvalidateToken(ctx, token)
}

func (s *AuthService) VerifyOTP(ctx context.Context, emailAddr, code string) (domain.User, error) {
	emailAddr = normalizeEmail(emailAddr)
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.otp.Verify(ctx, emailAddr, code)
	if err != nil {
		return domain.User{}, fmt.Errorf("verify otp: %w", err)
	}
	if !ok {
		return domain.User{}, domain.ErrInvalidOTP
	}

	if err := s.users.UpdateVerificationStatus(ctx, emailAddr, true); err != nil {
		return domain.User{}, fmt.Errorf("update verification: %w", err)
	}
	user.IsVerified = true
	return user, nil
}

// RequestOTP reenvia el codigo de verificacion. A diferencia de los envios
// automaticos, los errores se propagan al llamador. Devuelve true si la
// cuenta ya estaba verificada y no se envio nada.
func (s *AuthService) RequestOTP(ctx context.Context, emailAddr string) (bool, error) {
	emailAddr = normalizeEmail(emailAddr)
	if err := s.checkEmail(emailAddr); err != nil {
		return false, err
	}
	if s.otpLimiter != nil && !s.otpLimiter.Allow(ctx, emailAddr) {
		return false, domain.ErrOTPTooManyRequests
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, domain.ErrUserNotFound
		}
		return false, fmt.Errorf("lookup user: %w", err)
	}
	if user.IsVerified {
		return true, nil
	}
	if s.mailer == nil {
		return false, errors.New("email sender not configured")
	}

	code, err := s.otp.GenerateAndStore(ctx, emailAddr, s.otpTTL)
	if err != nil {
		return false, err
	}
	msg, err := email.OTPVerification(code, s.otpTTL)
	if err != nil {
		return false, err
	}
	if err := s.mailer.SendMail(ctx, emailAddr, msg.Subject, msg.HTML); err != nil {
		s.logger.Warn("send otp failed", zap.String("email", emailAddr), zap.Error(err))
		return false, fmt.Errorf("send otp: %w", err)
	}
	return false, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return s.findUser(ctx, id)
}

// GenerateAccessToken emite un access token sin tocar el refresh token guardado.
func (s *AuthService) GenerateAccessToken(user domain.User) (string, error) {
	return s.tokens.SignAccess(TokenPayload{Sub: user.ID, Role: user.Role, Email: user.Email})
}

// authenticate resuelve usuario + contraseña. Usuario inexistente y
// contraseña incorrecta devuelven el mismo error.
func (s *AuthService) authenticate(ctx context.Context, emailAddr, password string) (domain.User, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" || password == "" {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if !s.hasher.Compare(password, user.PasswordHash) {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) findUser(ctx context.Context, id string) (domain.User, error) {
	if strings.TrimSpace(id) == "" {
		return domain.User{}, domain.ErrUserNotFound
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

// startSession emite un par nuevo y reemplaza el hash guardado, lo que
// invalida cualquier refresh token anterior del usuario.
func (s *AuthService) startSession(ctx context.Context, user domain.User) (AuthResult, error) {
	access, err := s.GenerateAccessToken(user)
	if err != nil {
		return AuthResult{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.tokens.SignRefresh(TokenPayload{Sub: user.ID})
	if err != nil {
		return AuthResult{}, fmt.Errorf("sign refresh token: %w", err)
	}
	refreshHash, err := s.hasher.Hash(refresh)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash refresh token: %w", err)
	}
	if err := s.users.UpdateRefreshToken(ctx, user.ID, &refreshHash); err != nil {
		return AuthResult{}, fmt.Errorf("store refresh token: %w", err)
	}
	user.RefreshTokenHash = &refreshHash

	return AuthResult{
		Tokens: TokenPair{
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresIn:    int64(s.accessTTL / time.Second),
		},
		User: user,
	}, nil
}

func (s *AuthService) sendVerificationOTP(ctx context.Context, emailAddr string) {
	s.dispatch(ctx, "otp_verification", emailAddr, func(ctx context.Context) error {
		code, err := s.otp.GenerateAndStore(ctx, emailAddr, s.otpTTL)
		if err != nil {
			return err
		}
		msg, err := email.OTPVerification(code, s.otpTTL)
		if err != nil {
			return err
		}
		return s.mailer.SendMail(ctx, emailAddr, msg.Subject, msg.HTML)
	})
}

func (s *AuthService) sendWelcome(ctx context.Context, emailAddr, name string) {
	dashboard := s.frontendURL + "/dashboard"
	s.dispatch(ctx, "welcome", emailAddr, func(ctx context.Context) error {
		msg, err := email.Welcome(name, dashboard)
		if err != nil {
			return err
		}
		return s.mailer.SendMail(ctx, emailAddr, msg.Subject, msg.HTML)
	})
}

// dispatch corre un envio en segundo plano desacoplado del request. Los
// errores se registran y se descartan.
func (s *AuthService) dispatch(ctx context.Context, kind, emailAddr string, send func(context.Context) error) {
	if s.mailer == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("email dispatch panicked", zap.String("kind", kind), zap.Any("panic", r))
			}
		}()

		sendCtx, cancel := context.WithTimeout(detached, s.emailTimeout)
		defer cancel()
		if err := send(sendCtx); err != nil {
			s.logger.Warn("email dispatch failed",
				zap.String("kind", kind),
				zap.String("email", emailAddr),
				zap.Error(err),
			)
		}
	}()
}

func (s *AuthService) checkEmail(emailAddr string) error {
	if err := s.validate.Var(emailAddr, "required,email"); err != nil {
		return domain.ErrInvalidEmail
	}
	return nil
}

func normalizeEmail(emailAddr string) string {
	return strings.ToLower(strings.TrimSpace(emailAddr))
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return domain.ErrWeakPassword
	}
	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	if !lower || !upper || !digit || !special {
		return domain.ErrWeakPassword
	}
	return nil
}
