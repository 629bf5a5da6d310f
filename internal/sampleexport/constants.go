package sampleexport

import "time"

// Export layouts as written by the Compass Card site.
const (
	dateTimeLayout  = "Jan-02-2006 03:04 PM"
	journeyIDLayout = "2006-01-02T15:04:05.0000000"
	isoDateLayout   = "2006-01-02"
)

// Generation tuning.
const (
	missingTapOutRate = 0.06
	transferRate      = 0.3
	stationOriginRate = 0.4
	tripJitter        = 0.25
	maxSlotAttempts   = 16
	minRideMinutes    = 12
	rideMinutesRange  = 50
	defaultFare       = "-$3.15"
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
	PercentageMultiplier    = 100
	daysPerWeek             = 7
	progressInterval        = time.Second
)

var defaultStart = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

var header = []string{
	"DateTime", "Transaction", "Product", "LineItem", "Amount", "BalanceDetails",
	"JourneyId", "LocationDisplay", "TransactonTime", "OrderDate", "Payment",
	"OrderNumber", "AuthCode", "Total",
}

var busStops = []string{
	"Bus Stop 61935", "Bus Stop 50123", "Bus Stop 51862", "Bus Stop 60977", "Bus Stop 52114", "Bus Stop 58340",
}

var stations = []string{
	"Waterfront Stn", "Commercial-Broadway Stn", "Metrotown Stn", "Lonsdale Quay Stn", "Burrard Stn", "Joyce-Collingwood Stn",
}

// profile biases the tap-in hour of a rider.
type profile struct {
	name      string
	firstHour int
	hours     int
}

var profiles = []profile{
	{name: "early_bird", firstHour: 5, hours: 7},
	{name: "afternoon", firstHour: 12, hours: 5},
	{name: "evening", firstHour: 17, hours: 4},
	{name: "night_owl", firstHour: 21, hours: 3},
}
