package content

const (
	defaultTestimonialIntervalMS = 5000
	defaultBusinessAddress       = "Plot No.: 3761/5453/947, Satyabhama Niwas, GGP Enclave, Pandara, Bhubaneswar - 751 025"
)

// Default returns the stock Smart Home Solar copy.
func Default() Site {
	return Site{
		Brand: Brand{
			Name:      "Smart Home Solar System",
			Highlight: "Solar",
			Suffix:    "System",
			Tagline:   "Smart Home",
		},
		Navigation: []Link{
			{Label: "Home", Href: "#hero"},
			{Label: "About", Href: "#about"},
			{Label: "Services", Href: "#services"},
			{Label: "Contact", Href: "#contact"},
		},
		Hero: Hero{
			Eyebrow:        "Future of Energy",
			Headline:       "Energy Independence",
			HeadlineAccent: "Starts Here.",
			Lead:           "Transform your home into a self-sustaining powerhouse. Premium solar solutions designed for aesthetics, efficiency, and maximum ROI.",
			PrimaryAction:  Link{Label: "Calculate Savings", Href: "#contact"},
			SecondaryLink:  Link{Label: "How It Works", Href: "#about"},
			ImageURL:       "https://images.unsplash.com/photo-1508514177221-188b1cf16e9d?ixlib=rb-4.0.3&auto=format&fit=crop&w=2070&q=80",
			ImageAlt:       "Luxury Solar Home",
		},
		Stats: []Stat{
			{Label: "Installations", Value: "5,000+"},
			{Label: "Client Savings", Value: "$20M+"},
			{Label: "CO2 Avoided", Value: "15k Tons"},
			{Label: "Warranty", Value: "25 Years"},
		},
		About: About{
			Eyebrow:        "Our Story",
			Headline:       "Not Just Solar.",
			HeadlineAccent: "Smart Energy.",
			Body:           "We don't just bolt panels to your roof. We engineer comprehensive energy ecosystems. At Smart Home Solar, we combine **Tier-1 photovoltaic technology** with AI-driven monitoring to ensure every ray of sunshine counts.",
			Badge:          "#1 Rated Solar Provider 2025",
			ImageURL:       "https://images.unsplash.com/photo-1624397640148-949b1732bb0a?ixlib=rb-4.0.3&auto=format&fit=crop&w=1000&q=80",
			ImageAlt:       "Technician",
			Features: []Feature{
				{Title: "Precision Engineering", Description: "Laser-measured roof mapping for optimal placement."},
				{Title: "Aesthetics First", Description: "Sleek, all-black panels that blend with your architecture."},
				{Title: "25-Year Guarantee", Description: "Comprehensive bumper-to-bumper production warranty."},
			},
		},
		Services: ServiceGroup{
			Eyebrow:  "Our Services",
			Headline: "Complete Solar Solutions",
			Lead:     "From residential to commercial, we provide comprehensive solar energy solutions tailored to your needs.",
			Items: []Service{
				{Title: "On Grid Solar System", Icon: "grid", Description: "Connected to the utility grid, allowing you to sell excess energy back and reduce electricity bills significantly."},
				{Title: "Off Grid Solar System", Icon: "power", Description: "Complete energy independence with battery storage. Perfect for remote locations without grid access."},
				{Title: "Hybrid Solar System", Icon: "activity", Description: "Best of both worlds - grid connection with battery backup for uninterrupted power supply and maximum savings."},
				{Title: "Solar CCTV Street Light System", Icon: "camera", Description: "Solar-powered street lighting with integrated CCTV cameras for enhanced security and surveillance."},
				{Title: "Solar Water Pump System", Icon: "droplet", Description: "Efficient solar-powered water pumping solutions for irrigation, domestic use, and agricultural applications."},
			},
		},
		Testimonials: Testimonials{
			Eyebrow:       "Testimonials",
			Headline:      "Join the Revolution",
			Rating:        "4.9/5",
			RatingCaption: "Based on 2,000+ reviews",
			Images: []string{
				"/images/rev1.jpg",
				"/images/rev2.jpg",
				"/images/rev3.jpg",
				"/images/rev4.jpg",
				"/images/rev5.jpg",
				"/images/rev6.jpg",
			},
			IntervalMS: defaultTestimonialIntervalMS,
		},
		Contact: Contact{
			Headline:           "Let's power your future.",
			Lead:               "Get a custom solar design proposal including savings estimates and 3D roof rendering.",
			PersonName:         "Sangram K. Singh",
			PersonRole:         "Managing Partner",
			Phone:              "+91 75408 36582",
			Email:              "smarthomesolarsystem@gamil.com",
			Address:            defaultBusinessAddress,
			MonthlyBillOptions: []string{"$100-150", "$150-250", "$250-400", "$400+"},
			SubmitLabel:        "Get My Free Proposal",
			Disclaimer:         "No spam. Unsubscribe anytime.",
			SuccessMessage:     "Thank you! Our team will contact you shortly.",
		},
		Footer: Footer{
			Blurb: "Engineering the future of distributed energy. We are committed to a world powered by clean, renewable intelligence.",
			Columns: []LinkList{
				{Title: "Company", Links: []Link{
					{Label: "About", Href: "/#about"},
					{Label: "Careers", Href: "#"},
					{Label: "Impact", Href: "#"},
					{Label: "Press", Href: "#"},
				}},
				{Title: "Legal", Links: []Link{
					{Label: "Privacy", Href: "/privacy"},
					{Label: "Terms", Href: "#"},
					{Label: "Warranty", Href: "#"},
					{Label: "Sitemap", Href: "/sitemap.xml"},
				}},
			},
			Socials: []Link{
				{Label: "Twitter", Href: "#"},
				{Label: "LinkedIn", Href: "#"},
				{Label: "Instagram", Href: "#"},
			},
			MapHeading: "Visit HQ",
			MapTitle:   "Smart Home Solar System Location",
			MapEmbed:   "https://www.google.com/maps?q=20.297700,85.870771&hl=en&z=15&output=embed",
			Copyright:  "© 2025 Smart Home Solar Systems. All rights reserved.",
		},
	}
}
