package http

// Feature is a landing page highlight.
type Feature struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

var landingFeatures = []Feature{
	{Title: "Medical Excellence", Description: "Advanced AFI classification using AI technology for accurate diagnosis"},
	{Title: "Secure & Private", Description: "Your medical data is protected with enterprise-grade security"},
	{Title: "Fast Results", Description: "Get instant analysis results with high accuracy predictions"},
	{Title: "Doctor Appointments", Description: "Book appointments with qualified doctors seamlessly"},
}

// Tip is one health tip card.
type Tip struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

var healthTips = []Tip{
	{Title: "Nutrition", Text: "Eat a balanced diet rich in fruits, vegetables, whole grains, lean proteins, and dairy. Stay hydrated and avoid empty calories."},
	{Title: "Exercise", Text: "Engage in moderate exercise for 30 minutes most days. Walking, swimming, and prenatal yoga are excellent options."},
	{Title: "Rest & Sleep", Text: "Get plenty of rest. Sleep on your side in later pregnancy, using pillows for support. Nap when needed."},
	{Title: "Stress Management", Text: "Practice relaxation techniques like deep breathing, meditation, or prenatal massage to reduce stress."},
	{Title: "Prenatal Care", Text: "Attend all scheduled prenatal appointments. Discuss any concerns with your healthcare provider promptly."},
	{Title: "Avoid Harmful Substances", Text: "Avoid alcohol, tobacco, recreational drugs, and limit caffeine. Check with your doctor before taking any medications."},
}

var healthResources = []Tip{
	{Title: "Pregnancy Apps", Text: "Track your pregnancy progress, symptoms, and baby's development with recommended apps."},
	{Title: "Nutrition Guides", Text: "Detailed meal plans and recipes tailored for each trimester of pregnancy."},
	{Title: "Exercise Videos", Text: "Safe workout routines designed specifically for pregnant women."},
	{Title: "Support Groups", Text: "Connect with other expectant mothers for advice and encouragement."},
}

// Video is an embedded reference video.
type Video struct {
	ID       int    `json:"id"`
	EmbedURL string `json:"embed_url"`
}

var referenceVideos = []Video{
	{ID: 1, EmbedURL: "https://www.youtube.com/embed/aGNrDRQ1PAw"},
	{ID: 2, EmbedURL: "https://www.youtube.com/embed/SPDKgRwLCtE"},
	{ID: 3, EmbedURL: "https://www.youtube.com/embed/zjD9Ky4zFME"},
	{ID: 4, EmbedURL: "https://www.youtube.com/embed/Ra-GtEDB2bQ"},
	{ID: 5, EmbedURL: "https://www.youtube.com/embed/z78X4RNwmtY"},
	{ID: 6, EmbedURL: "https://www.youtube.com/embed/311yHRnUm7c"},
	{ID: 7, EmbedURL: "https://www.youtube.com/embed/2rlwYjpn-Ks"},
}

// ExternalDoctor is a specialist bookable through the external provider.
type ExternalDoctor struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Specialty  string  `json:"specialty"`
	Experience string  `json:"experience"`
	Rating     float64 `json:"rating"`
	Location   string  `json:"location"`
	Hospital   string  `json:"hospital"`
	Fee        string  `json:"fee"`
	Available  bool    `json:"available"`
	BookingURL string  `json:"booking_url"`
}

var externalDoctors = []ExternalDoctor{
	{ID: 1, Name: "Dr. Priya Sharma", Specialty: "Gynecologist", Experience: "15 years", Rating: 4.8, Location: "Mumbai", Hospital: "Apollo Hospital", Fee: "₹800", Available: true, BookingURL: "https://www.practo.com/mumbai/doctor/priya-sharma-gynecologist"},
	{ID: 2, Name: "Dr. Rajesh Kumar", Specialty: "Radiologist", Experience: "12 years", Rating: 4.6, Location: "Delhi", Hospital: "Max Healthcare", Fee: "₹600", Available: true, BookingURL: "https://www.practo.com/delhi/doctor/rajesh-kumar-radiologist"},
	{ID: 3, Name: "Dr. Sunita Patel", Specialty: "Obstetrician", Experience: "18 years", Rating: 4.9, Location: "Bangalore", Hospital: "Fortis Hospital", Fee: "₹1000", Available: false, BookingURL: "https://www.practo.com/bangalore/doctor/sunita-patel-obstetrician"},
}
