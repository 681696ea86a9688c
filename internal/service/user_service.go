package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"hoodlink/internal/authz"
	"hoodlink/internal/model"
	"hoodlink/internal/pkg"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	minPasswordLen  = 6
	searchUserLimit = 20
)

var (
	emailRe = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	phoneRe = regexp.MustCompile(`^\d{10}$`)
)

type UserService struct {
	users    UserStore
	members  MemberStore
	sessions SessionStore
	tokens   *pkg.TokenIssuer
	log      *zap.Logger
}

func NewUserService(users UserStore, members MemberStore, sessions SessionStore, tokens *pkg.TokenIssuer, log *zap.Logger) *UserService {
	return &UserService{users: users, members: members, sessions: sessions, tokens: tokens, log: log}
}

type RegisterInput struct {
	Name                 string
	Email                string
	Phone                string
	Password             string
	LineID               string
	IsElder              bool
	IsLivingAlone        bool
	ReceiveDailyCheck    bool
	ReceiveDisasterCheck bool
}

type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

// ProfilePatch 可更新字段白名单；nil 表示未提供
type ProfilePatch struct {
	Name                 *string
	Email                *string
	Phone                *string
	LineID               *string
	Password             *string
	IsElder              *bool
	IsLivingAlone        *bool
	ReceiveDailyCheck    *bool
	ReceiveDisasterCheck *bool
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.LineID = strings.TrimSpace(in.LineID)

	if in.Name == "" || in.Password == "" || (in.Email == "" && in.Phone == "") {
		return nil, pkg.InvalidInput("請提供姓名、密碼，並至少輸入 Email 或手機號碼")
	}
	if len(in.Password) < minPasswordLen {
		return nil, pkg.InvalidInput("密碼至少需 6 碼")
	}
	if in.Email != "" && !emailRe.MatchString(in.Email) {
		return nil, pkg.InvalidInput("Email 格式不正確")
	}
	if in.Phone != "" && !phoneRe.MatchString(in.Phone) {
		return nil, pkg.InvalidInput("手機號碼格式不正確")
	}
	if err := s.ensureCredentialFree(ctx, "", in.Email, in.Phone); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	user := &model.User{
		ID:                   pkg.NewID(),
		Name:                 in.Name,
		Email:                optional(in.Email),
		Phone:                optional(in.Phone),
		Password:             string(hash),
		Role:                 model.UserRoleUser,
		LineID:               optional(in.LineID),
		IsElder:              in.IsElder,
		IsLivingAlone:        in.IsLivingAlone,
		ReceiveDailyCheck:    in.ReceiveDailyCheck,
		ReceiveDisasterCheck: in.ReceiveDisasterCheck,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, pkg.Conflict("該 Email、手機或 LINE ID 已被使用")
		}
		return nil, pkg.Internal(err)
	}
	return user, nil
}

// ensureCredentialFree 检查 email/phone 是否被其他用户占用
func (s *UserService) ensureCredentialFree(ctx context.Context, selfID, email, phone string) error {
	if email != "" {
		u, err := s.users.FindByEmail(ctx, email)
		if err == nil && u.ID != selfID {
			return pkg.Conflict("該 Email 已被註冊")
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkg.Internal(err)
		}
	}
	if phone != "" {
		u, err := s.users.FindByPhone(ctx, phone)
		if err == nil && u.ID != selfID {
			return pkg.Conflict("該手機號碼已被註冊")
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkg.Internal(err)
		}
	}
	return nil
}

// Login 10 位数字视为手机号，否则视为 Email
func (s *UserService) Login(ctx context.Context, account, password string) (*LoginResult, error) {
	account = strings.TrimSpace(account)
	if account == "" || password == "" {
		return nil, pkg.InvalidInput("請提供帳號與密碼")
	}
	var (
		user *model.User
		err  error
	)
	switch {
	case phoneRe.MatchString(account):
		user, err = s.users.FindByPhone(ctx, account)
	case emailRe.MatchString(account):
		user, err = s.users.FindByEmail(ctx, normalizeEmail(account))
	default:
		return nil, pkg.InvalidInput("帳號格式錯誤，請輸入手機號碼或 Email")
	}
	if err != nil {
		return nil, storeErr(err, "找不到帳號")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, pkg.Unauthenticated("密碼錯誤")
	}

	token, claims, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	if err := s.sessions.Add(ctx, user.ID, claims.ID, s.tokens.TTL()); err != nil {
		return nil, pkg.Internal(err)
	}
	return &LoginResult{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: user}, nil
}

// Verify 校验 token 签名、有效期，以及会话是否仍在 redis 中登记
func (s *UserService) Verify(ctx context.Context, tokenStr string) (*pkg.Claims, error) {
	claims, err := s.tokens.Parse(tokenStr)
	if err != nil {
		if errors.Is(err, pkg.ErrTokenExpired) {
			return nil, pkg.Unauthenticated("登入已過期，請重新登入")
		}
		return nil, pkg.Unauthenticated("無效的 Token")
	}
	ok, err := s.sessions.Exists(ctx, claims.UserID, claims.ID)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	if !ok {
		return nil, pkg.Unauthenticated("登入狀態已失效，請重新登入")
	}
	return claims, nil
}

func (s *UserService) Logout(ctx context.Context, userID, jti string) error {
	if err := s.sessions.Revoke(ctx, userID, jti); err != nil {
		return pkg.Internal(err)
	}
	return nil
}

func (s *UserService) Profile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "找不到使用者")
	}
	return user, nil
}

// UpdateProfile 只处理白名单字段；空密码不更新；改密码后吊销其他会话
func (s *UserService) UpdateProfile(ctx context.Context, userID, jti string, p ProfilePatch) (*model.User, error) {
	current, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "找不到使用者")
	}

	fields := map[string]any{}
	email, phone := current.Email, current.Phone
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, pkg.InvalidInput("姓名不可為空")
		}
		fields["name"] = name
	}
	if p.Email != nil {
		e := normalizeEmail(*p.Email)
		if e != "" && !emailRe.MatchString(e) {
			return nil, pkg.InvalidInput("Email 格式錯誤")
		}
		email = optional(e)
		fields["email"] = email
	}
	if p.Phone != nil {
		ph := strings.TrimSpace(*p.Phone)
		if ph != "" && !phoneRe.MatchString(ph) {
			return nil, pkg.InvalidInput("手機號碼格式錯誤")
		}
		phone = optional(ph)
		fields["phone"] = phone
	}
	if email == nil && phone == nil {
		return nil, pkg.InvalidInput("Email 與手機號碼至少需保留一項")
	}
	if p.LineID != nil {
		fields["line_id"] = optional(strings.TrimSpace(*p.LineID))
	}
	if p.IsElder != nil {
		fields["is_elder"] = *p.IsElder
	}
	if p.IsLivingAlone != nil {
		fields["is_living_alone"] = *p.IsLivingAlone
	}
	if p.ReceiveDailyCheck != nil {
		fields["receive_daily_check"] = *p.ReceiveDailyCheck
	}
	if p.ReceiveDisasterCheck != nil {
		fields["receive_disaster_check"] = *p.ReceiveDisasterCheck
	}
	passwordChanged := false
	if p.Password != nil && *p.Password != "" {
		if len(*p.Password) < minPasswordLen {
			return nil, pkg.InvalidInput("密碼至少需 6 碼")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*p.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, pkg.Internal(err)
		}
		fields["password"] = string(hash)
		passwordChanged = true
	}

	var newEmail, newPhone string
	if p.Email != nil && email != nil {
		newEmail = *email
	}
	if p.Phone != nil && phone != nil {
		newPhone = *phone
	}
	if err := s.ensureCredentialFree(ctx, userID, newEmail, newPhone); err != nil {
		return nil, err
	}

	if err := s.users.Update(ctx, userID, fields); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, pkg.Conflict("Email、手機或 LINE ID 已被使用")
		}
		return nil, storeErr(err, "找不到使用者")
	}
	if passwordChanged {
		if err := s.sessions.RevokeAll(ctx, userID, jti); err != nil {
			// 密码已更新成功，会话清理失败只记录
			s.log.Warn("revoke sessions after password change failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return s.Profile(ctx, userID)
}

// Search 搜索用户；指定社区时仅管理员可查，并排除已是成员的用户
func (s *UserService) Search(ctx context.Context, callerID, q, communityID string) ([]model.UserBrief, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, pkg.InvalidInput("請提供搜尋關鍵字")
	}
	exclude := []string{callerID}
	if communityID != "" {
		roster, err := loadRoster(ctx, s.members, communityID)
		if err != nil {
			return nil, err
		}
		if err := authz.Admin(roster, callerID); err != nil {
			return nil, err
		}
		for uid := range roster.Members {
			exclude = append(exclude, uid)
		}
	}
	list, err := s.users.Search(ctx, q, exclude, searchUserLimit)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	out := make([]model.UserBrief, 0, len(list))
	for i := range list {
		out = append(out, list[i].Brief())
	}
	return out, nil
}
