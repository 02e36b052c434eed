package models

const (
	StateMainMenu       = "main_menu"
	StateSelectSalon    = "select_salon"
	StateSelectService  = "select_service"
	StateSelectDate     = "select_date"
	StateWaitingDate    = "waiting_date"
	StateSelectTime     = "select_time"
	StateSelectStaff    = "select_staff"
	StateConfirmation   = "confirmation"
	StateSelectPayment  = "select_payment"
	StateWaitingLogin   = "waiting_login"
	StateViewingBooking = "viewing_appointments"
)

// UserState состояние диалога пользователя в боте
type UserState struct {
	UserID      int64
	CurrentStep string
	TempData    map[string]interface{}
}

func (s *UserState) GetString(key string) string {
	if s == nil || s.TempData == nil {
		return ""
	}
	val, ok := s.TempData[key]
	if !ok {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func (s *UserState) GetInt64(key string) int64 {
	if s == nil || s.TempData == nil {
		return 0
	}
	val, ok := s.TempData[key]
	if !ok {
		return 0
	}
	switch v := val.(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case int:
		return int64(v)
	default:
		return 0
	}
}

func (s *UserState) GetFloat64(key string) float64 {
	if s == nil || s.TempData == nil {
		return 0
	}
	switch v := s.TempData[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

// GetStrings читает список строк, пережив JSON-сериализацию в Redis
func (s *UserState) GetStrings(key string) []string {
	if s == nil || s.TempData == nil {
		return nil
	}
	switch v := s.TempData[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}
