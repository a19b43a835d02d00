package i18n

var english = map[string]string{
	"page.home":             "Home",
	"page.partners":         "Partners",
	"page.events":           "Events",
	"page.news":             "News",
	"page.join-us":          "Join us",
	"page.admin":            "Admin panel",
	"page.signin":           "Sign in",
	"dashboard.messages":    "Messages",
	"dashboard.search":      "Member search",
	"dashboard.profile":     "My profile",
	"dashboard.events":      "Events",
	"dashboard.resources":   "Resources",
	"dashboard.videos":      "Videos",
	"dashboard.articles":    "Articles",
	"dashboard.jobs":        "Jobs",
	"dashboard.experts":     "Experts",
	"dashboard.news":        "News",
	"dashboard.calendar":    "Calendar",
	"message.sent":          "Message sent",
	"profile.updated":       "Profile updated",
	"error.message_invalid": "Message must be between 1 and 1000 characters",
	"session.signed_out":    "Signed out",
	"session.anonymous":     "Not signed in",
	"session.authenticated": "Signed in",
	"session.initializing":  "Checking session",
}

var french = map[string]string{
	"page.home":             "Accueil",
	"page.partners":         "Partenaires",
	"page.events":           "Événements",
	"page.news":             "Actualités",
	"page.join-us":          "Nous rejoindre",
	"page.admin":            "Administration",
	"page.signin":           "Connexion",
	"dashboard.messages":    "Messages",
	"dashboard.search":      "Annuaire des membres",
	"dashboard.profile":     "Mon profil",
	"dashboard.events":      "Événements",
	"dashboard.resources":   "Ressources",
	"dashboard.videos":      "Vidéos",
	"dashboard.articles":    "Articles",
	"dashboard.jobs":        "Offres d'emploi",
	"dashboard.experts":     "Experts",
	"dashboard.news":        "Actualités",
	"dashboard.calendar":    "Calendrier",
	"message.sent":          "Message envoyé",
	"profile.updated":       "Profil mis à jour",
	"error.message_invalid": "Le message doit contenir entre 1 et 1000 caractères",
	"session.signed_out":    "Déconnecté",
	"session.anonymous":     "Non connecté",
	"session.authenticated": "Connecté",
	"session.initializing":  "Vérification de la session",
}
