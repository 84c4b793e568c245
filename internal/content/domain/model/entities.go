package model

import "time"

// Service is an agency offering shown on the services page
type Service struct {
	Base        `bson:",inline"`
	Title       string   `json:"title" bson:"title" validate:"required,max=200,no_xss"`
	Slug        string   `json:"slug" bson:"slug" validate:"omitempty,slug,max=200"`
	Description string   `json:"description" bson:"description" validate:"required,no_xss"`
	Icon        string   `json:"icon,omitempty" bson:"icon,omitempty"`
	Features    []string `json:"features" bson:"features"`
	Price       string   `json:"price,omitempty" bson:"price,omitempty" validate:"max=100"`
	Sequence    int      `json:"sequence" bson:"sequence"`
	IsFeatured  bool     `json:"isFeatured" bson:"isFeatured"`
}

func (s *Service) SlugSource() string { return s.Title }
func (s *Service) GetSlug() string    { return s.Slug }
func (s *Service) SetSlug(v string)   { s.Slug = v }
func (s *Service) SetSequence(n int)  { s.Sequence = n }

// Product is a packaged product with a fixed price
type Product struct {
	Base        `bson:",inline"`
	Name        string   `json:"name" bson:"name" validate:"required,max=200,no_xss"`
	Slug        string   `json:"slug" bson:"slug" validate:"omitempty,slug,max=200"`
	Description string   `json:"description" bson:"description" validate:"required,no_xss"`
	Price       float64  `json:"price" bson:"price" validate:"gte=0"`
	Category    string   `json:"category,omitempty" bson:"category,omitempty" validate:"max=100"`
	Images      []string `json:"images" bson:"images" validate:"dive,url"`
	Features    []string `json:"features" bson:"features"`
	IsFeatured  bool     `json:"isFeatured" bson:"isFeatured"`
}

func (p *Product) SlugSource() string { return p.Name }
func (p *Product) GetSlug() string    { return p.Slug }
func (p *Product) SetSlug(v string)   { p.Slug = v }

// PortfolioItem is a finished client project
type PortfolioItem struct {
	Base         `bson:",inline"`
	Title        string     `json:"title" bson:"title" validate:"required,max=200,no_xss"`
	Slug         string     `json:"slug" bson:"slug" validate:"omitempty,slug,max=200"`
	Category     string     `json:"category" bson:"category" validate:"required,max=100"`
	Client       string     `json:"client,omitempty" bson:"client,omitempty" validate:"max=200"`
	Description  string     `json:"description,omitempty" bson:"description,omitempty" validate:"no_xss"`
	Images       []string   `json:"images" bson:"images" validate:"dive,url"`
	Technologies []string   `json:"technologies" bson:"technologies"`
	ProjectURL   string     `json:"projectUrl,omitempty" bson:"projectUrl,omitempty" validate:"omitempty,url"`
	CompletedAt  *time.Time `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	IsFeatured   bool       `json:"isFeatured" bson:"isFeatured"`
}

func (p *PortfolioItem) SlugSource() string { return p.Title }
func (p *PortfolioItem) GetSlug() string    { return p.Slug }
func (p *PortfolioItem) SetSlug(v string)   { p.Slug = v }

// BlogPost is an article on the blog page
type BlogPost struct {
	Base        `bson:",inline"`
	Title       string     `json:"title" bson:"title" validate:"required,max=200,no_xss"`
	Slug        string     `json:"slug" bson:"slug" validate:"omitempty,slug,max=200"`
	Excerpt     string     `json:"excerpt,omitempty" bson:"excerpt,omitempty" validate:"max=500,no_xss"`
	Content     string     `json:"content" bson:"content" validate:"required"`
	Author      string     `json:"author,omitempty" bson:"author,omitempty" validate:"max=100"`
	Tags        []string   `json:"tags" bson:"tags"`
	CoverImage  string     `json:"coverImage,omitempty" bson:"coverImage,omitempty" validate:"omitempty,url"`
	PublishedAt *time.Time `json:"publishedAt,omitempty" bson:"publishedAt,omitempty"`
	IsPublished bool       `json:"isPublished" bson:"isPublished"`
}

func (p *BlogPost) SlugSource() string { return p.Title }
func (p *BlogPost) GetSlug() string    { return p.Slug }
func (p *BlogPost) SetSlug(v string)   { p.Slug = v }
func (p *BlogPost) Published() bool    { return p.IsPublished }

func (p *BlogPost) StampPublished(at time.Time) {
	if p.PublishedAt == nil {
		p.PublishedAt = &at
	}
}

// TeamMember is a person on the about page
type TeamMember struct {
	Base        `bson:",inline"`
	Name        string            `json:"name" bson:"name" validate:"required,max=200,no_xss"`
	Position    string            `json:"position" bson:"position" validate:"required,max=200"`
	Bio         string            `json:"bio,omitempty" bson:"bio,omitempty" validate:"no_xss"`
	Image       string            `json:"image,omitempty" bson:"image,omitempty" validate:"omitempty,url"`
	Email       string            `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	SocialLinks map[string]string `json:"socialLinks,omitempty" bson:"socialLinks,omitempty" validate:"dive,url"`
}

// Achievement is a headline number such as "120+ projects"
type Achievement struct {
	Base        `bson:",inline"`
	Title       string `json:"title" bson:"title" validate:"required,max=200"`
	Value       string `json:"value" bson:"value" validate:"required,max=50"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
	Icon        string `json:"icon,omitempty" bson:"icon,omitempty"`
}

// Value is one of the agency's stated values
type Value struct {
	Base        `bson:",inline"`
	Title       string `json:"title" bson:"title" validate:"required,max=200"`
	Description string `json:"description" bson:"description" validate:"required"`
	Icon        string `json:"icon,omitempty" bson:"icon,omitempty"`
}

// Testimonial is a client quote
type Testimonial struct {
	Base       `bson:",inline"`
	ClientName string `json:"clientName" bson:"clientName" validate:"required,max=200,no_xss"`
	Company    string `json:"company,omitempty" bson:"company,omitempty" validate:"max=200"`
	Position   string `json:"position,omitempty" bson:"position,omitempty" validate:"max=200"`
	Content    string `json:"content" bson:"content" validate:"required,no_xss"`
	Rating     int    `json:"rating" bson:"rating" validate:"gte=1,lte=5"`
	Image      string `json:"image,omitempty" bson:"image,omitempty" validate:"omitempty,url"`
	IsFeatured bool   `json:"isFeatured" bson:"isFeatured"`
}

// GalleryImage is a picture on the gallery page
type GalleryImage struct {
	Base        `bson:",inline"`
	Title       string `json:"title" bson:"title" validate:"required,max=200"`
	ImageURL    string `json:"imageUrl" bson:"imageUrl" validate:"required,url"`
	Category    string `json:"category,omitempty" bson:"category,omitempty" validate:"max=100"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
}

// Experience is a snapshot of the agency's track record
type Experience struct {
	Base              `bson:",inline"`
	YearsOfExperience int    `json:"yearsOfExperience" bson:"yearsOfExperience" validate:"gte=0"`
	ProjectsCompleted int    `json:"projectsCompleted" bson:"projectsCompleted" validate:"gte=0"`
	HappyClients      int    `json:"happyClients" bson:"happyClients" validate:"gte=0"`
	TeamMembers       int    `json:"teamMembers" bson:"teamMembers" validate:"gte=0"`
	Description       string `json:"description,omitempty" bson:"description,omitempty"`
}

var (
	ServiceDescriptor = Descriptor{
		Name: "services", Resource: "service", TitleField: "title", OrderField: "sequence",
		SortFields: []string{"sequence", "title", "order", "createdAt", "updatedAt"},
		HasSlug:    true, HasFeatured: true, Sequenced: true,
	}
	ProductDescriptor = Descriptor{
		Name: "products", Resource: "product", TitleField: "name", OrderField: "order",
		SortFields: []string{"order", "name", "price", "createdAt", "updatedAt"},
		HasSlug:    true, HasCategory: true, HasFeatured: true,
	}
	PortfolioDescriptor = Descriptor{
		Name: "portfolio", Resource: "portfolio item", TitleField: "title", OrderField: "order",
		SortFields: []string{"order", "title", "completedAt", "createdAt", "updatedAt"},
		HasSlug:    true, HasCategory: true, HasFeatured: true, TagsField: "technologies",
	}
	BlogDescriptor = Descriptor{
		Name: "blog", Resource: "blog post", TitleField: "title", OrderField: "order",
		SortFields: []string{"publishedAt", "title", "order", "createdAt", "updatedAt"},
		HasSlug:    true, TagsField: "tags", PublishedField: "isPublished",
	}
	TeamDescriptor = Descriptor{
		Name: "team", Resource: "team member", TitleField: "name", OrderField: "order",
		SortFields: []string{"order", "name", "createdAt", "updatedAt"},
	}
	AchievementDescriptor = Descriptor{
		Name: "achievements", Resource: "achievement", TitleField: "title", OrderField: "order",
		SortFields: DefaultSortFields,
	}
	ValueDescriptor = Descriptor{
		Name: "values", Resource: "value", TitleField: "title", OrderField: "order",
		SortFields: DefaultSortFields,
	}
	TestimonialDescriptor = Descriptor{
		Name: "testimonials", Resource: "testimonial", TitleField: "clientName", OrderField: "order",
		SortFields:  []string{"order", "rating", "createdAt", "updatedAt"},
		HasFeatured: true,
	}
	GalleryDescriptor = Descriptor{
		Name: "gallery", Resource: "gallery image", TitleField: "title", OrderField: "order",
		SortFields:  []string{"order", "title", "createdAt", "updatedAt"},
		HasCategory: true,
	}
	ExperienceDescriptor = Descriptor{
		Name: "experience", Resource: "experience", TitleField: "description", OrderField: "order",
		SortFields: DefaultSortFields,
	}
)
