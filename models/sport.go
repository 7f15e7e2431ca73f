package models

type SportCategory string

const (
	SportCategorySolo SportCategory = "solo"
	SportCategoryTeam SportCategory = "team"
)

type SportStatus string

const (
	SportStatusOpen   SportStatus = "open"
	SportStatusClosed SportStatus = "closed"
)

type Sport struct {
	ID         int           `json:"id" db:"id"`
	Name       string        `json:"name" db:"name"`
	Category   SportCategory `json:"category" db:"category"`
	RosterSize *int          `json:"roster_size,omitempty" db:"roster_size"`
	Status     SportStatus   `json:"status" db:"status"`

	IconKey *string `json:"-" db:"icon_key"`
	IconURL *string `json:"icon_url,omitempty" db:"-"`
}

// Капасити по умолчанию для видов спорта без явного roster_size.
var defaultRosterSizes = map[string]int{
	"Cricket":     11,
	"Box Cricket": 8,
	"Football":    11,
	"Volleyball":  6,
	"Kabaddi":     7,
	"Relay":       4,
	"Tug of War":  8,
}

const fallbackRosterSize = 5

// RequiredRosterSize возвращает требуемый размер состава команды:
// явное значение, иначе значение из таблицы по имени, иначе дефолт.
func (s *Sport) RequiredRosterSize() int {
	if s.RosterSize != nil && *s.RosterSize > 0 {
		return *s.RosterSize
	}
	if size, ok := defaultRosterSizes[s.Name]; ok {
		return size
	}
	return fallbackRosterSize
}
