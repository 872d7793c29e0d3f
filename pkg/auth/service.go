package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ukhsc/ukhsc-system-backend/pkg/device"
	apperrors "github.com/ukhsc/ukhsc-system-backend/pkg/errors"
	"github.com/ukhsc/ukhsc-system-backend/pkg/federated"
	"github.com/ukhsc/ukhsc-system-backend/pkg/member"
	"github.com/ukhsc/ukhsc-system-backend/pkg/school"
	"github.com/ukhsc/ukhsc-system-backend/pkg/tokengenerator"
)

// Login outcomes reported to the Recorder
const (
	LoginLinked     = "linked"
	LoginOnboarding = "onboarding"
	LoginRegistered = "registered"
	LoginFailed     = "failed"
)

// Token flows reported to the Recorder
const (
	FlowLogin    = "login"
	FlowRegister = "register"
	FlowRefresh  = "refresh"
)

// Recorder receives flow outcomes. *metrics.Metrics satisfies it.
type Recorder interface {
	ObserveTrustDecision(result string)
	ObserveLogin(provider, result string)
	ObserveTokensIssued(flow string)
}

type noopRecorder struct{}

func (noopRecorder) ObserveTrustDecision(string) {}
func (noopRecorder) ObserveLogin(string, string) {}
func (noopRecorder) ObserveTokensIssued(string) {}

// Alert kinds handed to the Alerter
const (
	AlertNewDevice       = "new_device"
	AlertSuspiciousLogin = "suspicious_login"
)

// SecurityAlert describes a sign-in the member should hear about.
type SecurityAlert struct {
	Kind       string
	MemberID   uuid.UUID
	DeviceID   uuid.UUID
	DeviceName string
	OS         string
	IP         string
	At         time.Time
}

// Alerter delivers security alerts out of band. A failed delivery never
// fails the flow that raised it.
type Alerter interface {
	SecurityAlert(ctx context.Context, alert SecurityAlert) error
}

// SchoolSuggester guesses a member's school from an email address.
type SchoolSuggester interface {
	FindByEmailDomain(ctx context.Context, email string) (school.School, bool, error)
}

// Session is a token pair bound to one registered device.
type Session struct {
	tokengenerator.TokenPair
	DeviceID uuid.UUID
	MemberID uuid.UUID
}

// Onboarding is handed to an external identity that has no member yet.
type Onboarding struct {
	Token             string
	ExpiresAt         time.Time
	Email             string
	Name              string
	SuggestedSchoolID *uuid.UUID
}

// LoginResult is either a Session (linked identity) or an Onboarding
// (unlinked identity). Redirect is where the browser started the login.
type LoginResult struct {
	Redirect   string
	Session    *Session
	Onboarding *Onboarding
}

type RegisterParams struct {
	OnboardingToken string
	SchoolID        uuid.UUID
	DisplayName     string
}

type AuthService struct {
	provider        federated.IdentityProvider
	states          federated.StateStore
	links           federated.LinkRepository
	memberService   *member.MemberService
	deviceService   *device.DeviceService
	tokenService    *tokengenerator.TokenService
	recorder        Recorder
	schools         SchoolSuggester
	alerter         Alerter
	allowedRedirect *url.URL
}

type Option func(*AuthService)

func WithRecorder(recorder Recorder) Option {
	return func(s *AuthService) {
		if recorder != nil {
			s.recorder = recorder
		}
	}
}

func WithSchoolSuggester(schools SchoolSuggester) Option {
	return func(s *AuthService) {
		s.schools = schools
	}
}

// WithAlerter enables new-device and suspicious-login alerts.
func WithAlerter(alerter Alerter) Option {
	return func(s *AuthService) {
		s.alerter = alerter
	}
}

// WithFrontendURL sets the default post-login redirect. Caller supplied
// redirects must share its scheme and host.
func WithFrontendURL(frontendURL string) Option {
	return func(s *AuthService) {
		if frontendURL == "" {
			return
		}
		u, err := url.Parse(frontendURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			slog.Warn("Ignoring invalid frontend URL", "url", frontendURL)
			return
		}
		s.allowedRedirect = u
	}
}

func NewAuthService(
	provider federated.IdentityProvider,
	states federated.StateStore,
	links federated.LinkRepository,
	memberService *member.MemberService,
	deviceService *device.DeviceService,
	tokenService *tokengenerator.TokenService,
	opts ...Option,
) *AuthService {
	s := &AuthService{
		provider:      provider,
		states:        states,
		links:         links,
		memberService: memberService,
		deviceService: deviceService,
		tokenService:  tokenService,
		recorder:      noopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AuthService) ProviderName() string {
	return s.provider.Name()
}

// resolveRedirect returns the redirect to remember for a login. An empty
// result means the callback answers with JSON.
func (s *AuthService) resolveRedirect(redirect string) (string, error) {
	if s.allowedRedirect == nil {
		if redirect != "" {
			return "", apperrors.InvalidInput("redirect", "redirects are disabled")
		}
		return "", nil
	}
	if redirect == "" {
		return s.allowedRedirect.String(), nil
	}
	u, err := url.Parse(redirect)
	if err != nil || !strings.EqualFold(u.Scheme, s.allowedRedirect.Scheme) || !strings.EqualFold(u.Host, s.allowedRedirect.Host) {
		return "", apperrors.InvalidInput("redirect", "not an allowed origin")
	}
	u.Fragment, u.RawFragment = "", ""
	return u.String(), nil
}

// BeginLogin stores a one-shot state for redirect and returns the provider
// URL to send the browser to.
func (s *AuthService) BeginLogin(ctx context.Context, redirect string) (string, error) {
	redirect, err := s.resolveRedirect(redirect)
	if err != nil {
		return "", err
	}
	state, err := s.states.Issue(ctx, redirect)
	if err != nil {
		return "", apperrors.InternalWrap(err, "failed to start login")
	}
	return s.provider.AuthCodeURL(state), nil
}

// CompleteLogin handles the provider callback. A linked identity gets a
// session on a newly registered device, an unlinked one an onboarding
// token.
func (s *AuthService) CompleteLogin(ctx context.Context, code, state string, client device.ClientInfo) (LoginResult, error) {
	providerName := s.provider.Name()

	redirect, err := s.states.Consume(ctx, state)
	if err != nil {
		s.recorder.ObserveLogin(providerName, LoginFailed)
		if errors.Is(err, federated.ErrStateNotFound) {
			return LoginResult{}, apperrors.New(apperrors.ErrCodeOAuthStateInvalid, "login state is invalid or expired")
		}
		return LoginResult{}, apperrors.InternalWrap(err, "failed to consume login state")
	}
	result := LoginResult{Redirect: redirect}

	identity, err := s.provider.Exchange(ctx, code)
	if err != nil {
		s.recorder.ObserveLogin(providerName, LoginFailed)
		slog.Warn("Federated code exchange failed", "provider", providerName, "err", err)
		return result, apperrors.Wrap(err, apperrors.ErrCodeUnauthorized, "federated login failed")
	}

	memberID, err := s.links.FindUserByIdentity(ctx, identity.Provider, identity.Subject)
	if errors.Is(err, federated.ErrIdentityNotLinked) {
		onboarding, err := s.startOnboarding(ctx, identity)
		if err != nil {
			s.recorder.ObserveLogin(providerName, LoginFailed)
			return result, err
		}
		s.recorder.ObserveLogin(providerName, LoginOnboarding)
		slog.Info("Federated identity needs onboarding", "provider", identity.Provider, "email", identity.Email)
		result.Onboarding = &onboarding
		return result, nil
	}
	if err != nil {
		s.recorder.ObserveLogin(providerName, LoginFailed)
		return result, apperrors.InternalWrap(err, "failed to look up federated identity")
	}

	m, err := s.memberService.GetMember(ctx, memberID)
	if err != nil {
		s.recorder.ObserveLogin(providerName, LoginFailed)
		return result, err
	}
	session, err := s.openSession(ctx, m, client, FlowLogin)
	if err != nil {
		s.recorder.ObserveLogin(providerName, LoginFailed)
		return result, err
	}
	s.recorder.ObserveLogin(providerName, LoginLinked)
	slog.Info("Member logged in", "memberID", m.ID, "deviceID", session.DeviceID, "provider", providerName)
	result.Session = &session
	return result, nil
}

func (s *AuthService) startOnboarding(ctx context.Context, identity federated.ExternalIdentity) (Onboarding, error) {
	token, expiresAt, err := s.tokenService.Issue(tokengenerator.OnboardingPayload{
		Provider: identity.Provider,
		Subject:  identity.Subject,
		Email:    identity.Email,
		Name:     identity.Name,
	})
	if err != nil {
		return Onboarding{}, apperrors.InternalWrap(err, "failed to issue onboarding token")
	}
	onboarding := Onboarding{
		Token:     token,
		ExpiresAt: expiresAt,
		Email:     identity.Email,
		Name:      identity.Name,
	}
	if s.schools != nil && identity.EmailVerified {
		sch, ok, err := s.schools.FindByEmailDomain(ctx, identity.Email)
		if err != nil {
			slog.Warn("Failed to suggest school", "err", err)
		} else if ok {
			onboarding.SuggestedSchoolID = &sch.ID
		}
	}
	return onboarding, nil
}

// openSession registers the client as a new device of m and issues a pair
// bound to it.
func (s *AuthService) openSession(ctx context.Context, m member.Member, client device.ClientInfo, flow string) (Session, error) {
	d, err := s.deviceService.RegisterDevice(ctx, m.ID, client)
	if err != nil {
		return Session{}, apperrors.InternalWrap(err, "failed to register device")
	}
	pair, err := s.tokenService.IssuePair(m.ID, d.ID, string(m.Role))
	if err != nil {
		return Session{}, apperrors.InternalWrap(err, "failed to issue tokens")
	}
	s.recorder.ObserveTokensIssued(flow)
	if flow == FlowLogin {
		s.alert(ctx, SecurityAlert{
			Kind:       AlertNewDevice,
			MemberID:   m.ID,
			DeviceID:   d.ID,
			DeviceName: d.Name,
			OS:         string(d.OS),
			IP:         client.IP,
			At:         d.CreatedAt,
		})
	}
	return Session{TokenPair: pair, DeviceID: d.ID, MemberID: m.ID}, nil
}

// alert hands a to the alerter in the background.
func (s *AuthService) alert(ctx context.Context, a SecurityAlert) {
	if s.alerter == nil {
		return
	}
	if a.At.IsZero() {
		a.At = time.Now().UTC()
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := s.alerter.SecurityAlert(ctx, a); err != nil {
			slog.Warn("Failed to deliver security alert", "kind", a.Kind, "memberID", a.MemberID, "error", err)
		}
	}()
}

// Register turns an onboarding token into a member of params.SchoolID,
// links the external identity to it and opens a session.
func (s *AuthService) Register(ctx context.Context, params RegisterParams, client device.ClientInfo) (Session, error) {
	payload, err := s.tokenService.Parse(params.OnboardingToken, tokengenerator.KindOnboarding)
	if err != nil {
		return Session{}, err
	}
	onboarding := payload.(tokengenerator.OnboardingPayload)

	_, err = s.links.FindUserByIdentity(ctx, onboarding.Provider, onboarding.Subject)
	if err == nil {
		return Session{}, apperrors.AlreadyExists("federated identity", onboarding.Provider)
	}
	if !errors.Is(err, federated.ErrIdentityNotLinked) {
		return Session{}, apperrors.InternalWrap(err, "failed to look up federated identity")
	}

	m, err := s.memberService.CreateMember(ctx, member.CreateMemberParams{
		SchoolID:    params.SchoolID,
		DisplayName: params.DisplayName,
		Email:       onboarding.Email,
	})
	if err != nil {
		return Session{}, err
	}

	identity := federated.ExternalIdentity{
		Provider: onboarding.Provider,
		Subject:  onboarding.Subject,
		Email:    onboarding.Email,
		Name:     onboarding.Name,
	}
	if _, err := s.links.LinkIdentity(ctx, m.ID, identity); err != nil {
		// TODO: create the member and the link in one transaction so a lost race leaves no orphan member.
		if errors.Is(err, federated.ErrIdentityAlreadyLinked) {
			slog.Warn("Identity linked concurrently, member left unlinked", "memberID", m.ID, "provider", onboarding.Provider)
			return Session{}, apperrors.AlreadyExists("federated identity", onboarding.Provider)
		}
		return Session{}, apperrors.InternalWrap(err, "failed to link federated identity")
	}

	session, err := s.openSession(ctx, m, client, FlowRegister)
	if err != nil {
		return Session{}, err
	}
	s.recorder.ObserveLogin(onboarding.Provider, LoginRegistered)
	slog.Info("Member registered", "memberID", m.ID, "schoolID", m.SchoolID, "deviceID", session.DeviceID)
	return session, nil
}

// Refresh exchanges a refresh token for a new pair on the same device,
// provided the device service still trusts the presenting client.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, client device.ClientInfo) (Session, error) {
	payload, err := s.tokenService.Parse(refreshToken, tokengenerator.KindRefresh)
	if err != nil {
		return Session{}, err
	}
	refresh := payload.(tokengenerator.RefreshPayload)

	result, err := s.deviceService.ValidateDevice(ctx, refresh.DeviceID, client)
	if err != nil {
		return Session{}, apperrors.InternalWrap(err, "failed to validate device")
	}
	s.recorder.ObserveTrustDecision(string(result))

	switch result {
	case device.Trusted:
		slog.Debug("Device trusted", "userID", refresh.UserID, "deviceID", refresh.DeviceID, "ip", client.IP)
	case device.Untrusted:
		slog.Warn("Refresh rejected: device untrusted",
			"userID", refresh.UserID, "deviceID", refresh.DeviceID, "ip", client.IP,
			"device", client.Fingerprint.Name)
		s.alert(ctx, SecurityAlert{
			Kind:       AlertSuspiciousLogin,
			MemberID:   refresh.UserID,
			DeviceID:   refresh.DeviceID,
			DeviceName: client.Fingerprint.Name,
			OS:         string(client.Fingerprint.OS),
			IP:         client.IP,
		})
		return Session{}, apperrors.New(apperrors.ErrCodeDeviceUntrusted, "device could not be verified, please log in again")
	case device.UnknownDevice:
		slog.Info("Refresh rejected: device revoked or unknown", "userID", refresh.UserID, "deviceID", refresh.DeviceID)
		return Session{}, apperrors.New(apperrors.ErrCodeDeviceRevoked, "session has been revoked")
	default:
		return Session{}, apperrors.Newf(apperrors.ErrCodeInternal, "unexpected trust result %q", result)
	}

	// role may have changed since the last pair was issued
	m, err := s.memberService.GetMember(ctx, refresh.UserID)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
			return Session{}, apperrors.New(apperrors.ErrCodeDeviceRevoked, "session has been revoked")
		}
		return Session{}, err
	}
	pair, err := s.tokenService.IssuePair(m.ID, refresh.DeviceID, string(m.Role))
	if err != nil {
		return Session{}, apperrors.InternalWrap(err, "failed to issue tokens")
	}
	s.recorder.ObserveTokensIssued(FlowRefresh)
	return Session{TokenPair: pair, DeviceID: refresh.DeviceID, MemberID: m.ID}, nil
}

// Logout revokes the device the caller's access token is bound to. Logging
// out of an already revoked device succeeds.
func (s *AuthService) Logout(ctx context.Context, userID, deviceID uuid.UUID) error {
	err := s.deviceService.RevokeDevice(ctx, userID, deviceID)
	if err != nil && !errors.Is(err, device.ErrDeviceNotFound) {
		return apperrors.InternalWrap(err, "failed to revoke device")
	}
	slog.Info("Member logged out", "userID", userID, "deviceID", deviceID)
	return nil
}

// AbortLogin consumes the state of a login the provider reported as failed
// (for example when the user denied consent) and returns its redirect.
func (s *AuthService) AbortLogin(ctx context.Context, state, reason string) string {
	s.recorder.ObserveLogin(s.provider.Name(), LoginFailed)
	redirect, err := s.states.Consume(ctx, state)
	if err != nil {
		slog.Debug("Aborted login with unusable state", "reason", reason, "err", err)
		return ""
	}
	slog.Info("Federated login aborted by provider", "provider", s.provider.Name(), "reason", reason)
	return redirect
}
