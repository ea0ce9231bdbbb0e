package models

// Product represents a catalog item as served by the products API and the mock catalog
type Product struct {
	ID            int      `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Price         int      `json:"price" yaml:"price"`
	OriginalPrice *int     `json:"originalPrice,omitempty" yaml:"originalPrice,omitempty"` // Pointer for optional field
	Discount      *int     `json:"discount,omitempty" yaml:"discount,omitempty"`
	Category      string   `json:"category" yaml:"category"`
	Image         string   `json:"image" yaml:"image"`
	Description   string   `json:"description,omitempty" yaml:"description,omitempty"`
	Tags          []string `json:"tags" yaml:"tags"`
	InStock       bool     `json:"inStock" yaml:"inStock"`
	Rating        *float64 `json:"rating,omitempty" yaml:"rating,omitempty"`
	ReviewsCount  *int     `json:"reviewsCount,omitempty" yaml:"reviewsCount,omitempty"`
}

// Reviews returns the review count, treating a missing count as zero
func (p Product) Reviews() int {
	if p.ReviewsCount == nil {
		return 0
	}
	return *p.ReviewsCount
}

// Stars returns the rating, treating a missing rating as zero
func (p Product) Stars() float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

// Category is an entry of the category scroller
type Category struct {
	ID           int    `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	Icon         string `json:"image" yaml:"icon"`
	ProductCount int    `json:"productCount" yaml:"productCount"`
}

// ProductCSV represents a product as read from a catalog CSV file
type ProductCSV struct {
	ID            string `csv:"id"`
	Name          string `csv:"name"`
	Price         string `csv:"price"`
	OriginalPrice string `csv:"original_price"` // Empty for NULL
	Discount      string `csv:"discount"`
	Category      string `csv:"category"`
	Image         string `csv:"image"`
	Description   string `csv:"description"`
	Tags          string `csv:"tags"` // '|' separated
	InStock       string `csv:"in_stock"`
	Rating        string `csv:"rating"`
	ReviewsCount  string `csv:"reviews_count"`
}

// IntPtr returns a pointer to v, for optional fields
func IntPtr(v int) *int { return &v }

// FloatPtr returns a pointer to v, for optional fields
func FloatPtr(v float64) *float64 { return &v }
