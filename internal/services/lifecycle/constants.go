package lifecycle

// Word lists for synthesized merchant names and street addresses.
var (
	namePrefixes = []string{"Best", "Elite", "Prime", "Super", "Mega"}
	nameSuffixes = []string{"Store", "Shop", "Mart", "Center", "Plaza"}
	streetNames  = []string{"Main", "Oak", "First", "Second", "Park"}
)

// A merchant with no transactions for this many days churns at double weight.
const inactivityChurnDays = 30
