package main

import "github.com/shopspring/decimal"

type seedCategory struct {
	Name        string
	Description string
	Image       string
}

type seedProduct struct {
	Name        string
	Description string
	Price       int64
	Stock       int
	Image       string
	Category    string
	SKU         string
	Weight      string
}

type seedUser struct {
	Name     string
	Email    string
	Password string
	Admin    bool
	Phone    string
	Address  string
}

var categories = []seedCategory{
	{"Vegetables", "Fresh organic vegetables grown without pesticides", "https://images.unsplash.com/photo-1540420773420-3366772f4999?w=500"},
	{"Fruits", "Sweet and nutritious organic fruits", "https://images.unsplash.com/photo-1619566636858-adf3ef46400b?w=500"},
	{"Grains", "Wholesome organic grains and cereals", "https://images.unsplash.com/photo-1574323347407-f5e1ad6d020b?w=500"},
	{"Fertilizers", "Natural organic fertilizers for healthy soil", "https://images.unsplash.com/photo-1416879595882-3373a0480b5b?w=500"},
}

var products = []seedProduct{
	{"Organic Tomatoes", "Fresh, juicy organic tomatoes grown without any chemicals. Perfect for salads, cooking, and making sauces.", 80, 100, "https://images.unsplash.com/photo-1546470427-e5ac89cd0b31?w=500", "Vegetables", "VEG-TOM-001", "1"},
	{"Organic Carrots", "Sweet and crunchy organic carrots, rich in beta-carotene and vitamins.", 60, 150, "https://images.unsplash.com/photo-1445282768818-728615cc910a?w=500", "Vegetables", "VEG-CAR-001", "1"},
	{"Organic Apples", "Crisp and sweet organic apples, perfect for snacking or baking.", 120, 80, "https://images.unsplash.com/photo-1560806887-1e4cd0b6cbd6?w=500", "Fruits", "FRT-APP-001", "1"},
	{"Organic Bananas", "Naturally ripened organic bananas, rich in potassium and energy.", 50, 200, "https://images.unsplash.com/photo-1571771894821-ce9b6c11b08e?w=500", "Fruits", "FRT-BAN-001", "1"},
	{"Organic Brown Rice", "Nutritious organic brown rice, unpolished and full of fiber.", 150, 50, "https://images.unsplash.com/photo-1586201375761-83865001e31c?w=500", "Grains", "GRN-RIC-001", "5"},
	{"Organic Wheat", "Premium quality organic wheat, perfect for making flour and bread.", 200, 30, "https://images.unsplash.com/photo-1574323347407-f5e1ad6d020b?w=500", "Grains", "GRN-WHT-001", "10"},
	{"Organic Compost", "Rich organic compost made from natural materials, perfect for garden soil.", 300, 25, "https://images.unsplash.com/photo-1416879595882-3373a0480b5b?w=500", "Fertilizers", "FRT-COM-001", "20"},
	{"Organic Vermicompost", "Premium vermicompost made with earthworms, excellent for plant growth.", 250, 40, "https://images.unsplash.com/photo-1416879595882-3373a0480b5b?w=500", "Fertilizers", "FRT-VER-001", "15"},
}

var users = []seedUser{
	{"Admin User", "admin@vardaanagro.com", "admin123", true, "+91-9876543210", "Vardaan Agro Farm, Punjab, India"},
	{"John Doe", "customer@example.com", "customer123", false, "+91-9876543211", "Delhi, India"},
}

func (p seedProduct) weight() *decimal.Decimal {
	w := decimal.RequireFromString(p.Weight)
	return &w
}
