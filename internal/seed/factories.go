package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"reliefhub/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the login password for every seeded account.
const DefaultPassword = "Relief-dev-pw-1!"

var resourceTitles = map[models.ResourceType][]string{
	models.ResourceTypeFood: {
		"Bottled water", "Rice bags", "Canned vegetables", "Baby formula", "Dry rations",
	},
	models.ResourceTypeShelter: {
		"Family tents", "Wool blankets", "Sleeping bags", "Tarpaulins", "Folding cots",
	},
	models.ResourceTypeMedical: {
		"First aid kits", "Bandages", "Antibiotics", "ORS sachets", "Insulin doses",
	},
	models.ResourceTypeTransport: {
		"Pickup truck trips", "Boat evacuations", "Ambulance runs", "Fuel cans",
	},
}

var volunteerSkills = []string{
	"first aid", "driving", "logistics", "cooking", "search and rescue",
	"translation", "counselling", "amateur radio",
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db *gorm.DB

	hashOnce sync.Once
	hash     string
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{db: db}
}

// passwordHash lazily hashes DefaultPassword once; bcrypt is slow enough
// that per-user hashing dominates seeding time otherwise.
func (f *Factory) passwordHash() string {
	f.hashOnce.Do(func() {
		hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			panic(fmt.Sprintf("seed: bcrypt failed: %v", err))
		}
		f.hash = string(hashed)
	})
	return f.hash
}

// CreateUser persists a user with the given role and generated profile data.
func (f *Factory) CreateUser(role models.Role) (*models.User, error) {
	name := gofakeit.Name()
	lat := gofakeit.Latitude()
	lng := gofakeit.Longitude()

	user := &models.User{
		Name:     name,
		Email:    fmt.Sprintf("%s.%d@example.org", slugify(name), gofakeit.Number(100, 999999)),
		Password: f.passwordHash(),
		Role:     role,
		Phone:    fmt.Sprintf("9%09d", gofakeit.Number(0, 999999999)),
		Location: models.Location{
			Latitude:  &lat,
			Longitude: &lng,
			Address:   gofakeit.City(),
		},
		Availability: gofakeit.Bool(),
	}

	if role == models.RoleVolunteer {
		user.Organization = gofakeit.Company()
		user.Skills = pickSkills()
		user.Availability = true
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateResource persists a resource owned by the given volunteer. Stock
// starts fully available.
func (f *Factory) CreateResource(provider *models.User) (*models.Resource, error) {
	types := []models.ResourceType{
		models.ResourceTypeFood,
		models.ResourceTypeShelter,
		models.ResourceTypeMedical,
		models.ResourceTypeTransport,
	}
	resourceType := types[rand.Intn(len(types))]
	titles := resourceTitles[resourceType]
	quantity := gofakeit.Number(5, 50)

	lat := gofakeit.Latitude()
	lng := gofakeit.Longitude()

	resource := &models.Resource{
		Title:             titles[rand.Intn(len(titles))],
		Description:       gofakeit.Sentence(8),
		Type:              resourceType,
		Quantity:          quantity,
		AvailableQuantity: quantity,
		Status:            models.DeriveResourceStatus(quantity, quantity),
		Location: models.Location{
			Latitude:  &lat,
			Longitude: &lng,
			Address:   gofakeit.City(),
		},
		ProviderID: provider.ID,
	}

	if err := f.db.Create(resource).Error; err != nil {
		return nil, err
	}
	return resource, nil
}

// CreateRequest persists a request in the given lifecycle state. The caller
// is responsible for keeping the resource's stock accounting consistent.
func (f *Factory) CreateRequest(victim *models.User, resource *models.Resource, quantity int, status models.RequestStatus) (*models.Request, error) {
	priorities := []models.RequestPriority{
		models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityCritical,
	}

	request := &models.Request{
		UserID:            victim.ID,
		ResourceID:        resource.ID,
		QuantityRequested: quantity,
		Priority:          priorities[rand.Intn(len(priorities))],
		Status:            status,
		Message:           gofakeit.Sentence(10),
	}
	if status == models.RequestStatusRejected {
		request.AdminNotes = "Out of coverage area"
	}

	if err := f.db.Create(request).Error; err != nil {
		return nil, err
	}
	return request, nil
}

func pickSkills() []string {
	n := 1 + rand.Intn(3)
	picked := make([]string, 0, n)
	seen := make(map[string]bool, n)
	for len(picked) < n {
		skill := volunteerSkills[rand.Intn(len(volunteerSkills))]
		if !seen[skill] {
			seen[skill] = true
			picked = append(picked, skill)
		}
	}
	return picked
}

func slugify(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "."))
}
