package services

import "github.com/saifelleuhci/kanouwood2/internal/textcontent"

// DefaultCopy is the French page copy shown for any field the document leaves
// empty. Contact email, address and hours have no default and stay hidden.
func DefaultCopy() textcontent.TextContent {
	return textcontent.TextContent{
		Header: textcontent.Header{
			Logo:     "SOCRATE WOOD",
			Home:     "Accueil",
			Products: "Produits",
		},
		Hero: textcontent.Hero{
			Title:       "OBJETS EN BOIS D'OLIVIER",
			Subtitle:    "PRODUITS ARTISANAUX 100% NATURELS",
			CTACatalog:  "Télécharger le Catalogue",
			CTAWorkshop: "Découvrir notre atelier",
		},
		Workshop: textcontent.Workshop{
			Title:          "ATELIER EN LIGNE",
			QualityTitle:   "QUALITÉ DE FABRICATION",
			QualityContent: "Nos produits sont travaillés à l'unité avec une exigence de qualité, fait-main, un savoir-faire unique transmis de génération en génération.",
			PriceTitle:     "PRIX D'ATELIER",
			PriceContent:   "Nos prix sont réfléchis et étudiés selon la pièce, ses dimensions et la complexité de sa réalisation dans notre atelier artisanal.",
		},
		Natural: textcontent.Natural{
			Title:    "SIMPLEMENT NATUREL",
			Subtitle: "Bois d'olivier naturel",
			Content: "Le bois d'olivier est une matière naturelle, un bois très compact et très résistant. " +
				"Il est plus ou moins clair, ses veines sont irrégulières et lui confèrent toute sa noblesse une fois fini et poli. " +
				"C'est un bois plus dense que le hêtre, ceci lui confère une plus grande résistance et des caractéristiques hygiéniques lui permettant d'être utilisé en cuisine. " +
				"Il ne se rompt pas et il n'absorbe ni les liquides, ni les bactéries, ni les mauvaises odeurs.",
		},
		Testimonial: textcontent.Testimonial{
			Content: "\"Merci naturolive, vos pièces sont magnifiques...\"",
			Author:  "LAETITIA, FRANCE",
		},
		About: textcontent.Block{
			Title:   "Notre Histoire",
			Content: "Depuis plus de 10 ans, nous créons des pièces uniques en bois, alliant tradition et modernité.",
		},
		Products: textcontent.Block{
			Title:   "Nos Créations",
			Content: "Explorez notre collection de meubles et objets en bois, chacun fabriqué à la main avec le plus grand soin.",
		},
		Contact: textcontent.Block{
			Title:   "Contactez-nous",
			Content: "Pour toute question ou commande spéciale, n'hésitez pas à nous contacter.",
		},
		ContactInfo: textcontent.ContactInfo{
			Phone: "+216 58 415 520",
		},
		CTA: textcontent.CTA{
			Text:  "Appelez-nous pour un devis gratuit",
			Phone: "+216 96 794 242",
		},
		Footer: textcontent.Footer{
			AboutTitle:      "À propos",
			AboutContent:    "Votre spécialiste en artisanat de bois de qualité.",
			ContactTitle:    "Contact",
			ContactContent:  "Besoin d'informations ? Contactez-nous !",
			QuickLinksTitle: "Liens Rapides",
			Rights:          "2025 SOCRATE WOOD. Tous droits réservés.",
		},
	}
}
