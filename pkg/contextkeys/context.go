package contextkeys

// Используем кастомный тип, чтобы избежать коллизий
type contextKey string

const (
	// DBContextKey - ключ, по которому хранится *gorm.DB (в gin и в context)
	DBContextKey = contextKey("db")
	// UserContextKey - аутентифицированный *models.User
	UserContextKey = contextKey("user")
	// UserIDContextKey - ID аутентифицированного пользователя
	UserIDContextKey = contextKey("userID")
)
