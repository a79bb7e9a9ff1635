// Package registration реализует пятишаговый мастер регистрации участника:
// личные данные, фотография, тариф, оплата и проверка перед отправкой.
package registration

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/gym-console/internal/lib/sanitize"
	"github.com/magabrotheeeer/gym-console/internal/lib/whatsapp"
	"github.com/magabrotheeeer/gym-console/internal/models"
)

// Шаги мастера.
const (
	StepPersonal = iota + 1
	StepPicture
	StepMembership
	StepPayment
	StepReview
)

// TotalSteps количество шагов.
const TotalSteps = StepReview

// DefaultMaxPictureSize предельный размер фотографии.
const DefaultMaxPictureSize = 5 << 20

var (
	// ErrStepLocked переход на шаг, который ещё не пройден.
	ErrStepLocked = errors.New("step is not reachable yet")
	// ErrInvalidStep номер шага вне диапазона.
	ErrInvalidStep = errors.New("invalid step")
	// ErrSubmitted мастер уже отправлен.
	ErrSubmitted = errors.New("registration already submitted")
	// ErrSubmitting мастер отправляется в backend, форму менять нельзя.
	ErrSubmitting = errors.New("registration submission in progress")
	// ErrNotReview отправка возможна только с шага проверки.
	ErrNotReview = errors.New("registration can be submitted only from the review step")
)

// StepNames названия шагов для индикатора прогресса.
var StepNames = map[int]string{
	StepPersonal:   "Personal Info",
	StepPicture:    "Profile Picture",
	StepMembership: "Membership",
	StepPayment:    "Payment",
	StepReview:     "Review",
}

// ValidationError ошибки полей одного шага.
type ValidationError struct {
	Step   int               `json:"step"`
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("step %d: %s", e.Step, strings.Join(parts, ", "))
}

// Form данные мастера.
type Form struct {
	FullName      string               `json:"fullName"`
	Email         string               `json:"email"`
	MobileNumber  string               `json:"mobileNumber"`
	DateOfBirth   string               `json:"dateOfBirth"`
	JoinDate      string               `json:"joinDate"`
	MembershipID  int64                `json:"membershipId"`
	TotalFee      decimal.Decimal      `json:"totalFee"`
	Amount        decimal.Decimal      `json:"amount"`
	PaymentDate   string               `json:"paymentDate"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
	Remarks       string               `json:"remarks"`
	Status        models.UserStatus    `json:"status"`
}

// Update частичное изменение формы: nil-поля не трогаются.
type Update struct {
	FullName      *string               `json:"fullName,omitempty"`
	Email         *string               `json:"email,omitempty"`
	MobileNumber  *string               `json:"mobileNumber,omitempty"`
	DateOfBirth   *string               `json:"dateOfBirth,omitempty"`
	JoinDate      *string               `json:"joinDate,omitempty"`
	MembershipID  *int64                `json:"membershipId,omitempty"`
	Amount        *decimal.Decimal      `json:"amount,omitempty"`
	PaymentDate   *string               `json:"paymentDate,omitempty"`
	PaymentMethod *models.PaymentMethod `json:"paymentMethod,omitempty"`
	Remarks       *string               `json:"remarks,omitempty"`
	Status        *models.UserStatus    `json:"status,omitempty"`
}

// PictureInfo метаданные загруженной фотографии.
type PictureInfo struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
}

// Wizard состояние одного мастера.
type Wizard struct {
	ID         string                 `json:"id"`
	Owner      string                 `json:"-"`
	Step       int                    `json:"step"`
	Completed  []int                  `json:"completedSteps"`
	Form       Form                   `json:"form"`
	Picture    *models.ProfilePicture `json:"-"`
	Submitted  bool                   `json:"submitted"`
	ReceiptURL string                 `json:"receiptUrl,omitempty"`
	ShareLink  string                 `json:"shareLink,omitempty"`
	UpdatedAt  time.Time              `json:"updatedAt"`

	submitting bool
}

// NewWizard создаёт мастер на первом шаге. Даты вступления и оплаты по умолчанию today.
func NewWizard(id, owner string, today time.Time) *Wizard {
	d := today.Format(models.DateLayout)
	return &Wizard{
		ID:    id,
		Owner: owner,
		Step:  StepPersonal,
		Form: Form{
			JoinDate:      d,
			PaymentDate:   d,
			PaymentMethod: models.PaymentCash,
			Status:        models.UserActive,
		},
		UpdatedAt: today,
	}
}

func (w *Wizard) clone() Wizard {
	c := *w
	c.Completed = slices.Clone(w.Completed)
	if w.Picture != nil {
		p := *w.Picture
		c.Picture = &p
	}
	return c
}

// PictureInfo возвращает метаданные фотографии или nil.
func (w *Wizard) PictureInfo() *PictureInfo {
	if w.Picture == nil {
		return nil
	}
	return &PictureInfo{Filename: w.Picture.Filename, ContentType: w.Picture.ContentType, Size: len(w.Picture.Data)}
}

// Progress процент заполнения для индикатора.
func (w *Wizard) Progress() float64 {
	return float64(w.Step-1) / float64(TotalSteps-1) * 100
}

// IsCompleted сообщает, пройден ли шаг.
func (w *Wizard) IsCompleted(step int) bool {
	return slices.Contains(w.Completed, step)
}

func (w *Wizard) markCompleted(step int) {
	if !w.IsCompleted(step) {
		w.Completed = append(w.Completed, step)
		slices.Sort(w.Completed)
	}
}

func (w *Wizard) editable() error {
	switch {
	case w.Submitted:
		return ErrSubmitted
	case w.submitting:
		return ErrSubmitting
	}
	return nil
}

// Apply сливает изменения в форму. Выбор тарифа подставляет его стоимость в totalFee.
func (w *Wizard) Apply(u Update, plans []models.Membership) error {
	if err := w.editable(); err != nil {
		return err
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&w.Form.FullName, u.FullName)
	set(&w.Form.Email, u.Email)
	set(&w.Form.MobileNumber, u.MobileNumber)
	set(&w.Form.DateOfBirth, u.DateOfBirth)
	set(&w.Form.JoinDate, u.JoinDate)
	set(&w.Form.PaymentDate, u.PaymentDate)
	set(&w.Form.Remarks, u.Remarks)
	if u.Amount != nil {
		w.Form.Amount = *u.Amount
	}
	if u.PaymentMethod != nil {
		w.Form.PaymentMethod = *u.PaymentMethod
	}
	if u.Status != nil {
		w.Form.Status = *u.Status
	}
	if u.MembershipID != nil {
		w.Form.MembershipID = *u.MembershipID
		w.Form.TotalFee = decimal.Zero
		for _, p := range plans {
			if p.ID == *u.MembershipID {
				w.Form.TotalFee = p.Fee
				break
			}
		}
	}
	return nil
}

// SetPicture прикрепляет фотографию. Допускаются только image/* не больше maxSize.
func (w *Wizard) SetPicture(p models.ProfilePicture, maxSize int64) error {
	if err := w.editable(); err != nil {
		return err
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxPictureSize
	}
	if !strings.HasPrefix(p.ContentType, "image/") {
		return &ValidationError{Step: StepPicture, Fields: map[string]string{"profilePicture": "please select an image file"}}
	}
	if int64(len(p.Data)) > maxSize {
		return &ValidationError{Step: StepPicture, Fields: map[string]string{"profilePicture": "file size should not exceed 5MB"}}
	}
	w.Picture = &p
	return nil
}

// RemovePicture убирает фотографию.
func (w *Wizard) RemovePicture() {
	w.Picture = nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})
	return v
}

type personalStep struct {
	FullName     string `json:"fullName" validate:"required,max=255"`
	Email        string `json:"email" validate:"required,email"`
	MobileDigits string `json:"mobileNumber" validate:"required,len=10"`
	DateOfBirth  string `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	JoinDate     string `json:"joinDate" validate:"required,datetime=2006-01-02"`
}

type paymentStep struct {
	PaymentDate   string `json:"paymentDate" validate:"required,datetime=2006-01-02"`
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=CASH CARD UPI BANK_TRANSFER"`
}

var fieldMessages = map[string]string{
	"required": "is required",
	"email":    "email is invalid",
	"len":      "mobile number must be 10 digits",
	"datetime": "must be a date in format YYYY-MM-DD",
	"oneof":    "is not supported",
	"max":      "is too long",
}

func structErrors(step int, s any) *ValidationError {
	ve := &ValidationError{Step: step, Fields: map[string]string{}}
	if err := validate.Struct(s); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			for _, fe := range errs {
				msg, ok := fieldMessages[fe.Tag()]
				if !ok {
					msg = "is not valid"
				}
				ve.Fields[fe.Field()] = msg
			}
		}
	}
	return ve
}

// ValidateStep проверяет поля шага.
func (w *Wizard) ValidateStep(step int) error {
	var ve *ValidationError
	switch step {
	case StepPersonal:
		ve = structErrors(step, personalStep{
			FullName:     strings.TrimSpace(w.Form.FullName),
			Email:        strings.TrimSpace(w.Form.Email),
			MobileDigits: whatsapp.Digits(w.Form.MobileNumber),
			DateOfBirth:  w.Form.DateOfBirth,
			JoinDate:     w.Form.JoinDate,
		})
	case StepPicture:
		return nil
	case StepMembership:
		ve = &ValidationError{Step: step, Fields: map[string]string{}}
		if w.Form.MembershipID <= 0 {
			ve.Fields["membershipId"] = "please select a membership plan"
		} else if !w.Form.TotalFee.IsPositive() {
			ve.Fields["totalFee"] = "total fee must be greater than 0"
		}
	case StepPayment:
		ve = structErrors(step, paymentStep{
			PaymentDate:   w.Form.PaymentDate,
			PaymentMethod: string(w.Form.PaymentMethod),
		})
		switch {
		case !w.Form.Amount.IsPositive():
			ve.Fields["amount"] = "payment amount must be greater than 0"
		case w.Form.Amount.GreaterThan(w.Form.TotalFee):
			ve.Fields["amount"] = "payment amount cannot be greater than total fee"
		}
	case StepReview:
		return nil
	default:
		return ErrInvalidStep
	}
	if len(ve.Fields) == 0 {
		return nil
	}
	return ve
}

// Next проверяет текущий шаг, отмечает его пройденным и переходит к следующему.
func (w *Wizard) Next() error {
	if err := w.editable(); err != nil {
		return err
	}
	if err := w.ValidateStep(w.Step); err != nil {
		return err
	}
	w.markCompleted(w.Step)
	if w.Step < TotalSteps {
		w.Step++
	}
	return nil
}

// Prev возвращает на предыдущий шаг.
func (w *Wizard) Prev() {
	if w.Step > StepPersonal {
		w.Step--
	}
}

// GoTo переходит на более ранний или уже пройденный шаг.
func (w *Wizard) GoTo(step int) error {
	if step < StepPersonal || step > TotalSteps {
		return ErrInvalidStep
	}
	if step > w.Step && !w.IsCompleted(step) {
		return ErrStepLocked
	}
	w.Step = step
	return nil
}

// ValidateAll повторно проверяет шаги с обязательными полями.
func (w *Wizard) ValidateAll() error {
	for _, step := range []int{StepPersonal, StepMembership, StepPayment} {
		if err := w.ValidateStep(step); err != nil {
			return err
		}
	}
	return nil
}

// Request собирает запрос backend'у с очищенными от разметки текстовыми полями.
func (w *Wizard) Request() models.RegistrationRequest {
	f := w.Form
	method := f.PaymentMethod
	if method == "" {
		method = models.PaymentCash
	}
	status := f.Status
	if status == "" {
		status = models.UserActive
	}
	return models.RegistrationRequest{
		FullName:      sanitize.Text(f.FullName),
		Email:         strings.TrimSpace(f.Email),
		MobileNumber:  strings.TrimSpace(f.MobileNumber),
		DateOfBirth:   f.DateOfBirth,
		JoinDate:      f.JoinDate,
		MembershipID:  f.MembershipID,
		TotalFee:      f.TotalFee,
		Amount:        f.Amount,
		PaymentDate:   f.PaymentDate,
		PaymentMethod: method,
		Remarks:       sanitize.Text(f.Remarks),
		Status:        status,
	}
}
