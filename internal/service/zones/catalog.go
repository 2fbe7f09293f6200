package zones

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"moto-dispatch/internal/apperr"
	"moto-dispatch/internal/domain"
	"moto-dispatch/internal/logx"
)

// Repository reads zones.
type Repository interface {
	List(ctx context.Context, activeOnly bool) ([]domain.Zone, error)
}

// Catalog resolves delivery prices from named zones.
type Catalog struct {
	repo             Repository
	defaultPrice     decimal.Decimal
	operationTimeout time.Duration
	logger           logx.Logger
}

// NewCatalog creates a Catalog. defaultPrice is charged when no active zone matches.
func NewCatalog(repo Repository, defaultPrice decimal.Decimal, timeout time.Duration, logger logx.Logger) *Catalog {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Catalog{
		repo:             repo,
		defaultPrice:     defaultPrice,
		operationTimeout: timeout,
		logger:           logger,
	}
}

// List returns zones, all of them or only the active ones.
func (c *Catalog) List(ctx context.Context, activeOnly bool) ([]domain.Zone, error) {
	ctx, cancel := context.WithTimeout(ctx, c.operationTimeout)
	defer cancel()

	zones, err := c.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, apperr.FromContext(err)
	}
	return zones, nil
}

// FindZoneForAddresses picks the active zone matching the pickup address, then the
// dropoff address. It fails with apperr.ErrZoneNotFound when neither matches.
func (c *Catalog) FindZoneForAddresses(ctx context.Context, pickup, dropoff string) (*domain.Zone, error) {
	zones, err := c.List(ctx, true)
	if err != nil {
		return nil, err
	}
	if z, ok := Match(zones, pickup); ok {
		return z, nil
	}
	if z, ok := Match(zones, dropoff); ok {
		return z, nil
	}
	return nil, apperr.ErrZoneNotFound
}

// Quote prices a delivery. Unknown areas get the flat default rate and a warning flag.
func (c *Catalog) Quote(ctx context.Context, pickup, dropoff string) (domain.Quote, error) {
	z, err := c.FindZoneForAddresses(ctx, pickup, dropoff)
	switch {
	case err == nil:
		id := z.ID
		return domain.Quote{Price: z.Price, ZoneID: &id, ZoneName: z.Name}, nil
	case errors.Is(err, apperr.ErrZoneNotFound):
		c.logger.Warn("no zone matched, default price applied",
			logx.String("event", "zone_not_found"),
			logx.String("pickup", pickup),
			logx.String("dropoff", dropoff),
			logx.String("price", c.defaultPrice.String()),
		)
		return domain.Quote{Price: c.defaultPrice, Defaulted: true}, nil
	default:
		return domain.Quote{}, err
	}
}

// Match returns the active zone whose descriptor best matches address.
// A descriptor is a list of terms separated by ',' or ';'. The zone with the longest
// matching term wins; ties go to the lowest id.
func Match(zones []domain.Zone, address string) (*domain.Zone, bool) {
	addr := normalize(address)
	if addr == "" {
		return nil, false
	}

	var (
		best      *domain.Zone
		bestScore int
	)
	for i := range zones {
		z := &zones[i]
		if !z.IsActive {
			continue
		}
		score := matchScore(z.AreaDescriptor, addr)
		if score == 0 {
			continue
		}
		if score > bestScore || (score == bestScore && z.ID < best.ID) {
			best, bestScore = z, score
		}
	}
	return best, best != nil
}

func matchScore(descriptor, addr string) int {
	score := 0
	for _, term := range splitTerms(descriptor) {
		if len(term) > score && strings.Contains(addr, term) {
			score = len(term)
		}
	}
	return score
}

func splitTerms(descriptor string) []string {
	parts := strings.FieldsFunc(descriptor, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := normalize(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalize folds case, strips accents and collapses whitespace.
func normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}
