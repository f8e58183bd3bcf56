/**
 * @description
 * Static reference data served through the USSD menus: the NIP bank list used
 * for transfer bank selection, the airtime network catalogue, and the list of
 * Nigerian states offered during health-insurance enrollment.
 *
 * @notes
 * - Order is significant. Pagination windows and page-relative selection both
 *   resolve against these slices by index, so entries must not be reordered
 *   between requests of one conversation.
 */
package domain

// Bank is a static NIP bank entry.
type Bank struct {
	Name string
	Code string
}

// Network is an airtime network with its provider VAS service category.
type Network struct {
	Name              string
	ServiceCategoryID string
}

// Banks is the ordered bank list shown during transfer bank selection.
var Banks = []Bank{
	{Name: "Access Bank", Code: "000014"},
	{Name: "Zenith Bank", Code: "000015"},
	{Name: "UBA", Code: "000004"},
	{Name: "First Bank of Nigeria", Code: "000016"},
	{Name: "GTBank", Code: "000013"},
	{Name: "Ecobank Nigeria", Code: "000010"},
	{Name: "Union Bank of Nigeria", Code: "000018"},
	{Name: "Fidelity Bank", Code: "000007"},
	{Name: "Sterling Bank", Code: "000001"},
	{Name: "Wema Bank", Code: "000017"},
	{Name: "Stanbic IBTC Bank", Code: "000012"},
	{Name: "FCMB", Code: "000003"},
	{Name: "Kuda Bank", Code: "090267"},
	{Name: "Opay", Code: "090175"},
	{Name: "Palmpay", Code: "090176"},
	{Name: "Moniepoint", Code: "090405"},
	{Name: "Globus Bank", Code: "000027"},
	{Name: "Polaris Bank", Code: "000008"},
	{Name: "Keystone Bank", Code: "000002"},
	{Name: "Heritage Bank", Code: "000020"},
	{Name: "Titan Trust Bank", Code: "000025"},
	{Name: "Unity Bank", Code: "000011"},
	{Name: "Providus Bank", Code: "000023"},
	{Name: "Jaiz Bank", Code: "000006"},
	{Name: "Taj Bank", Code: "000026"},
}

// Networks is the airtime network catalogue, in menu order.
var Networks = []Network{
	{Name: "MTN", ServiceCategoryID: "61efacbcda92348f9dde5f92"},
	{Name: "GLO", ServiceCategoryID: "61efacc8da92348f9dde5f95"},
	{Name: "Airtel", ServiceCategoryID: "61efacd3da92348f9dde5f98"},
	{Name: "9mobile", ServiceCategoryID: "61efacdeda92348f9dde5f9b"},
}

// Regions is the ordered state list shown during health enrollment.
var Regions = []string{
	"Abia", "Adamawa", "Akwa Ibom", "Anambra", "Bauchi", "Bayelsa", "Benue",
	"Borno", "Cross River", "Delta", "Ebonyi", "Edo", "Ekiti", "Enugu",
	"FCT Abuja", "Gombe", "Imo", "Jigawa", "Kaduna", "Kano", "Katsina",
	"Kebbi", "Kogi", "Kwara", "Lagos", "Nasarawa", "Niger", "Ogun", "Ondo",
	"Osun", "Oyo", "Plateau", "Rivers", "Sokoto", "Taraba", "Yobe", "Zamfara",
}

// SavingsDurations is the closed set of fixed-savings tenors, in menu order.
var SavingsDurations = []string{"30 days", "60 days", "90 days", "6 months"}

// HealthTiers is the two-way health plan choice, in menu order.
var HealthTiers = []string{"Individual", "Family"}
