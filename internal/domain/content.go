package domain

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

type ContentKind string

const (
	KindBanners    ContentKind = "banners"
	KindBlogs      ContentKind = "blogs"
	KindContacts   ContentKind = "contacts"
	KindIndustries ContentKind = "industries"
	KindServices   ContentKind = "services"
)

// Entity is an admin-managed content record.
type Entity interface {
	Normalize()
	Validate() error
	Stamp(id string, createdAt, updatedAt time.Time)
}

var entityFactories = map[ContentKind]func() Entity{
	KindBanners:    func() Entity { return &Banner{} },
	KindBlogs:      func() Entity { return &BlogPost{} },
	KindContacts:   func() Entity { return &Contact{} },
	KindIndustries: func() Entity { return &Industry{} },
	KindServices:   func() Entity { return &ServiceOffering{} },
}

func ParseContentKind(s string) (ContentKind, bool) {
	kind := ContentKind(strings.ToLower(s))
	_, ok := entityFactories[kind]
	return kind, ok
}

// DecodeEntity builds the typed entity for kind from a JSON body, normalized and validated.
func DecodeEntity(kind ContentKind, body []byte) (Entity, error) {
	factory, ok := entityFactories[kind]
	if !ok {
		return nil, ErrNotFound
	}
	e := factory()
	if err := json.Unmarshal(body, e); err != nil {
		return nil, invalid("body", "Invalid JSON format")
	}
	e.Normalize()
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// ContentItem is the stored form of an Entity.
type ContentItem struct {
	ID        string
	Kind      ContentKind
	Data      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Meta struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (m *Meta) Stamp(id string, createdAt, updatedAt time.Time) {
	m.ID = id
	m.CreatedAt = createdAt
	m.UpdatedAt = updatedAt
}

type Banner struct {
	Meta
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle"`
	ImageURL  string `json:"imageUrl"`
	CTALabel  string `json:"ctaLabel"`
	CTALink   string `json:"ctaLink"`
	Active    bool   `json:"active"`
	SortOrder int    `json:"sortOrder"`
}

func (b *Banner) Normalize() {
	b.Title = strings.TrimSpace(b.Title)
	b.Subtitle = strings.TrimSpace(b.Subtitle)
	b.ImageURL = strings.TrimSpace(b.ImageURL)
	b.CTALabel = strings.TrimSpace(b.CTALabel)
	b.CTALink = strings.TrimSpace(b.CTALink)
}

func (b *Banner) Validate() error {
	if b.Title == "" {
		return invalid("title", "Title is required")
	}
	if b.SortOrder < 0 {
		return invalid("sortOrder", "Sort order cannot be negative")
	}
	return nil
}

type BlogPost struct {
	Meta
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `json:"content"`
	CoverImage  string     `json:"coverImage"`
	Author      string     `json:"author"`
	Tags        []string   `json:"tags"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

func Slugify(s string) string {
	return strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func (p *BlogPost) Normalize() {
	p.Title = strings.TrimSpace(p.Title)
	p.Slug = Slugify(p.Slug)
	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	}
	p.Author = strings.TrimSpace(p.Author)
	tags := p.Tags[:0]
	for _, t := range p.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	p.Tags = tags
}

func (p *BlogPost) Validate() error {
	if p.Title == "" {
		return invalid("title", "Title is required")
	}
	if strings.TrimSpace(p.Content) == "" {
		return invalid("content", "Content is required")
	}
	return nil
}

type ContactStatus string

const (
	ContactNew       ContactStatus = "new"
	ContactContacted ContactStatus = "contacted"
	ContactClosed    ContactStatus = "closed"
)

type Contact struct {
	Meta
	Name    string        `json:"name"`
	Email   string        `json:"email"`
	Phone   string        `json:"phone"`
	Company string        `json:"company"`
	Message string        `json:"message"`
	Status  ContactStatus `json:"status"`
}

func (c *Contact) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = NormalizeEmail(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Company = strings.TrimSpace(c.Company)
	if c.Status == "" {
		c.Status = ContactNew
	}
}

func (c *Contact) Validate() error {
	if c.Name == "" {
		return invalid("name", "Name is required")
	}
	if err := ValidateEmail(c.Email); err != nil {
		return err
	}
	switch c.Status {
	case ContactNew, ContactContacted, ContactClosed:
	default:
		return invalid("status", "Unknown contact status %q", c.Status)
	}
	return nil
}

type Industry struct {
	Meta
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

func (i *Industry) Normalize() {
	i.Name = strings.TrimSpace(i.Name)
	i.Description = strings.TrimSpace(i.Description)
	i.Icon = ResolveIcon(i.Icon)
}

func (i *Industry) Validate() error {
	if i.Name == "" {
		return invalid("name", "Name is required")
	}
	return nil
}

type ServiceOffering struct {
	Meta
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	Features    []string `json:"features"`
}

func (s *ServiceOffering) Normalize() {
	s.Title = strings.TrimSpace(s.Title)
	s.Description = strings.TrimSpace(s.Description)
	s.Icon = ResolveIcon(s.Icon)
}

func (s *ServiceOffering) Validate() error {
	if s.Title == "" {
		return invalid("title", "Title is required")
	}
	return nil
}

const DefaultIcon = "sparkles"

// icons lists the keys the site renderer knows how to draw.
var icons = map[string]bool{
	"sparkles": true, "code": true, "cloud": true, "shield": true, "chart": true,
	"cart": true, "health": true, "bank": true, "factory": true, "truck": true,
	"school": true, "mobile": true, "brain": true, "support": true, "rocket": true,
}

// ResolveIcon maps a free-form icon key onto a known key, falling back to DefaultIcon.
func ResolveIcon(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	k = strings.TrimSuffix(strings.TrimSuffix(k, "icon"), "-")
	if icons[k] {
		return k
	}
	return DefaultIcon
}
