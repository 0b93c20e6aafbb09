package seed

import (
	"time"

	"github.com/hitoshi/tastebuddiez/internal/model"
)

type demoUser struct {
	email       string
	fullName    string
	rating      float64
	preferences model.CallerPreferences
}

var demoUsers = []demoUser{
	{
		email:    "alice@example.com",
		fullName: "Alice Johnson",
		rating:   4.8,
		preferences: model.CallerPreferences{
			DietaryRestrictions: []string{"vegetarian-friendly"},
			Allergens:           []string{"shellfish"},
			CuisinePreferences:  []string{"Italian", "Mediterranean", "French"},
		},
	},
	{
		email:    "bob@example.com",
		fullName: "Bob Smith",
		rating:   4.5,
		preferences: model.CallerPreferences{
			Allergens:          []string{"peanuts"},
			CuisinePreferences: []string{"Japanese", "Korean", "Thai"},
		},
	},
	{
		email:    "maria@example.com",
		fullName: "Maria Garcia",
		rating:   4.9,
		preferences: model.CallerPreferences{
			DietaryRestrictions: []string{"gluten-free"},
			Allergens:           []string{"gluten"},
			CuisinePreferences:  []string{"Mexican", "Latino", "Spanish"},
		},
	},
	{
		email:    "david@example.com",
		fullName: "David Chen",
		rating:   4.2,
		preferences: model.CallerPreferences{
			Allergens:          []string{"dairy"},
			CuisinePreferences: []string{"Chinese", "Asian", "Vietnamese"},
		},
	},
	{
		email:    "priya@example.com",
		fullName: "Priya Patel",
		rating:   4.7,
		preferences: model.CallerPreferences{
			DietaryRestrictions: []string{"vegetarian"},
			CuisinePreferences:  []string{"Indian", "Middle Eastern", "Mediterranean"},
		},
	},
}

type demoMeal struct {
	sellerEmail        string
	title              string
	description        string
	cuisineType        string
	mealType           string
	salePrice          float64
	portionSize        string
	contains           []string
	mayContain         []string
	ingredients        string
	nutritionInfo      string
	photo              string
	pickupInstructions string
}

func (d demoMeal) toMeal(id, sellerID string, now time.Time) *model.Meal {
	price := d.salePrice
	return &model.Meal{
		ID:                 id,
		SellerID:           sellerID,
		Title:              d.title,
		Description:        d.description,
		CuisineType:        d.cuisineType,
		MealType:           d.mealType,
		Ingredients:        d.ingredients,
		Photos:             []string{d.photo},
		AllergenInfo:       model.NewAllergenInfo(d.contains, d.mayContain),
		NutritionInfo:      d.nutritionInfo,
		PortionSize:        d.portionSize,
		AvailableForSale:   true,
		SalePrice:          &price,
		AvailableForSwap:   true,
		SwapPreferences:    []string{},
		Status:             model.MealStatusAvailable,
		PreparationDate:    now,
		ExpiresDate:        now.Add(24 * time.Hour),
		PickupInstructions: d.pickupInstructions,
	}
}

var demoMeals = []demoMeal{
	{
		sellerEmail:        "alice@example.com",
		title:              "Extra Homemade Chili",
		description:        "A big pot of hearty chili with ground beef and beans. Plenty to share for dinner or lunch tomorrow.",
		cuisineType:        "American",
		mealType:           "Dinner",
		salePrice:          8.00,
		portionSize:        "3 servings",
		mayContain:         []string{"dairy"},
		ingredients:        "Ground beef, Kidney beans, Black beans, Diced tomatoes, Onions, Bell peppers, Chili spices",
		nutritionInfo:      "Calories: 380, Protein: 25g, Carbs: 30g, Fat: 18g",
		photo:              "https://images.unsplash.com/photo-1455619452474-d2be8b1e70cd?w=800",
		pickupInstructions: "Lobby or front entrance until 9 PM",
	},
	{
		sellerEmail:        "bob@example.com",
		title:              "Homemade Chicken Fried Rice",
		description:        "Fried rice loaded with veggies and chicken. Just needs reheating.",
		cuisineType:        "Chinese",
		mealType:           "Dinner",
		salePrice:          6.50,
		portionSize:        "3 servings",
		contains:           []string{"eggs", "soy"},
		ingredients:        "Rice, Chicken, Eggs, Mixed vegetables, Soy sauce, Green onions, Garlic",
		nutritionInfo:      "Calories: 400, Protein: 22g, Carbs: 45g, Fat: 15g",
		photo:              "https://images.unsplash.com/photo-1603133872878-684f208fb84b?w=800",
		pickupInstructions: "Building 2 lobby, any time tonight",
	},
	{
		sellerEmail:        "maria@example.com",
		title:              "Extra Enchiladas",
		description:        "Chicken enchiladas with homemade sauce. Reheats easily.",
		cuisineType:        "Mexican",
		mealType:           "Dinner",
		salePrice:          7.00,
		portionSize:        "2 servings",
		contains:           []string{"dairy"},
		mayContain:         []string{"gluten"},
		ingredients:        "Corn tortillas, Shredded chicken, Enchilada sauce, Cheese, Onions, Garlic, Mexican spices",
		nutritionInfo:      "Calories: 420, Protein: 28g, Carbs: 35g, Fat: 22g",
		photo:              "https://images.unsplash.com/photo-1534352956036-cd81e27dd615?w=800",
		pickupInstructions: "Around all evening, message before pickup",
	},
	{
		sellerEmail:        "david@example.com",
		title:              "Homemade Mac and Cheese",
		description:        "Creamy mac and cheese with a crispy breadcrumb topping. Happy to share or swap.",
		cuisineType:        "American",
		mealType:           "Dinner",
		salePrice:          5.50,
		portionSize:        "3 servings",
		contains:           []string{"dairy", "gluten"},
		ingredients:        "Macaroni, Cheddar cheese, Mozzarella, Milk, Butter, Breadcrumbs, Seasonings",
		nutritionInfo:      "Calories: 450, Protein: 18g, Carbs: 48g, Fat: 22g",
		photo:              "https://images.unsplash.com/photo-1543339494-b4cd4f7ba686?w=800",
		pickupInstructions: "Available until midnight",
	},
	{
		sellerEmail:        "priya@example.com",
		title:              "Extra Butter Chicken & Rice",
		description:        "Butter chicken with basmati rice. Flavorful and easy to reheat.",
		cuisineType:        "Indian",
		mealType:           "Dinner",
		salePrice:          7.50,
		portionSize:        "2 servings",
		contains:           []string{"dairy"},
		mayContain:         []string{"nuts"},
		ingredients:        "Chicken, Tomato sauce, Butter, Cream, Basmati rice, Indian spices, Garlic, Ginger",
		nutritionInfo:      "Calories: 550, Protein: 32g, Carbs: 45g, Fat: 28g",
		photo:              "https://images.unsplash.com/photo-1603894584373-5ac82b2ae398?w=800",
		pickupInstructions: "East building common area",
	},
	{
		sellerEmail:        "alice@example.com",
		title:              "Fresh Baked Chocolate Chip Cookies",
		description:        "Still warm and soft. Would love to swap for other snacks.",
		cuisineType:        "American",
		mealType:           "Dessert",
		salePrice:          4.00,
		portionSize:        "12 cookies",
		contains:           []string{"gluten", "dairy", "eggs"},
		mayContain:         []string{"nuts"},
		ingredients:        "Flour, Butter, Chocolate chips, Brown sugar, Eggs, Vanilla",
		nutritionInfo:      "Calories: 150 per cookie, Sugar: 12g, Fat: 7g",
		photo:              "https://images.unsplash.com/photo-1499636136210-6f4ee915583e?w=800",
		pickupInstructions: "Come by any time tonight",
	},
	{
		sellerEmail:        "bob@example.com",
		title:              "Leftover Pizza Night",
		description:        "Homemade BBQ chicken and Margherita slices. Reheats quickly.",
		cuisineType:        "Italian",
		mealType:           "Dinner",
		salePrice:          5.00,
		portionSize:        "4 large slices",
		contains:           []string{"gluten", "dairy"},
		ingredients:        "Pizza dough, Mozzarella, Chicken, BBQ sauce, Tomatoes, Basil, Olive oil",
		nutritionInfo:      "Calories: 250 per slice, Protein: 12g, Carbs: 30g, Fat: 10g",
		photo:              "https://images.unsplash.com/photo-1565299624946-b28f40a0ae38?w=800",
		pickupInstructions: "Building 3 common room",
	},
	{
		sellerEmail:        "david@example.com",
		title:              "Extra Pasta Bake",
		description:        "Baked ziti with sausage and three cheeses. Too much for one person.",
		cuisineType:        "Italian",
		mealType:           "Dinner",
		salePrice:          6.00,
		portionSize:        "3 servings",
		contains:           []string{"dairy", "gluten"},
		ingredients:        "Ziti pasta, Italian sausage, Ricotta, Mozzarella, Parmesan, Marinara sauce, Italian herbs",
		nutritionInfo:      "Calories: 480, Protein: 25g, Carbs: 45g, Fat: 24g",
		photo:              "https://images.unsplash.com/photo-1551183053-bf91a1d81141?w=800",
		pickupInstructions: "Free all evening, message to meet up",
	},
}
