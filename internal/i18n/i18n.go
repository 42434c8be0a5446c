// Package i18n translates user-facing API messages to French, English and
// Arabic.
package i18n

import (
	"golang.org/x/text/language"
)

// Message keys.
const (
	MsgCreated          = "created"
	MsgUpdated          = "updated"
	MsgDeleted          = "deleted"
	MsgStatusChanged    = "status_changed"
	MsgStatusUnchanged  = "status_unchanged"
	MsgCommentAdded     = "comment_added"
	MsgCommentDeleted   = "comment_deleted"
	MsgValidationFailed = "validation_failed"
	MsgNotFound         = "not_found"
	MsgCommentNotFound  = "comment_not_found"
	MsgForbidden        = "forbidden"
	MsgUnauthorized     = "unauthorized"
	MsgSomethingWrong   = "something_went_wrong"
	MsgInvalidBody      = "invalid_body"
	MsgInvalidID        = "invalid_id"
	MsgInvalidLogin     = "invalid_credentials"
	MsgEmailTaken       = "email_taken"
	MsgUserCreated      = "user_created"
	MsgLoggedIn         = "logged_in"
)

var supported = []language.Tag{language.English, language.French, language.Arabic}

var matcher = language.NewMatcher(supported)

var catalog = map[string]map[string]string{
	"en": {
		MsgCreated:          "Created successfully.",
		MsgUpdated:          "Updated successfully.",
		MsgDeleted:          "Deleted successfully.",
		MsgStatusChanged:    "Status updated.",
		MsgStatusUnchanged:  "Status already set, nothing changed.",
		MsgCommentAdded:     "Comment added.",
		MsgCommentDeleted:   "Comment deleted.",
		MsgValidationFailed: "Some fields are invalid.",
		MsgNotFound:         "Post not found.",
		MsgCommentNotFound:  "Comment not found.",
		MsgForbidden:        "You are not allowed to do this.",
		MsgUnauthorized:     "Please sign in again.",
		MsgSomethingWrong:   "Something went wrong, please try again.",
		MsgInvalidBody:      "Invalid request body.",
		MsgInvalidID:        "Invalid identifier.",
		MsgInvalidLogin:     "Invalid email or password.",
		MsgEmailTaken:       "This email is already registered.",
		MsgUserCreated:      "User created.",
		MsgLoggedIn:         "Signed in.",
	},
	"fr": {
		MsgCreated:          "Créé avec succès.",
		MsgUpdated:          "Mis à jour avec succès.",
		MsgDeleted:          "Supprimé avec succès.",
		MsgStatusChanged:    "Statut mis à jour.",
		MsgStatusUnchanged:  "Statut déjà appliqué, aucun changement.",
		MsgCommentAdded:     "Commentaire ajouté.",
		MsgCommentDeleted:   "Commentaire supprimé.",
		MsgValidationFailed: "Certains champs sont invalides.",
		MsgNotFound:         "Publication introuvable.",
		MsgCommentNotFound:  "Commentaire introuvable.",
		MsgForbidden:        "Vous n'êtes pas autorisé à effectuer cette action.",
		MsgUnauthorized:     "Veuillez vous reconnecter.",
		MsgSomethingWrong:   "Une erreur s'est produite, veuillez réessayer.",
		MsgInvalidBody:      "Corps de requête invalide.",
		MsgInvalidID:        "Identifiant invalide.",
		MsgInvalidLogin:     "Email ou mot de passe incorrect.",
		MsgEmailTaken:       "Cet email est déjà utilisé.",
		MsgUserCreated:      "Utilisateur créé.",
		MsgLoggedIn:         "Connecté.",
	},
	"ar": {
		MsgCreated:          "تم الإنشاء بنجاح.",
		MsgUpdated:          "تم التحديث بنجاح.",
		MsgDeleted:          "تم الحذف بنجاح.",
		MsgStatusChanged:    "تم تحديث الحالة.",
		MsgStatusUnchanged:  "الحالة مطبقة مسبقا، لم يتغير شيء.",
		MsgCommentAdded:     "تمت إضافة التعليق.",
		MsgCommentDeleted:   "تم حذف التعليق.",
		MsgValidationFailed: "بعض الحقول غير صالحة.",
		MsgNotFound:         "المنشور غير موجود.",
		MsgCommentNotFound:  "التعليق غير موجود.",
		MsgForbidden:        "غير مسموح لك بهذا الإجراء.",
		MsgUnauthorized:     "يرجى تسجيل الدخول مرة أخرى.",
		MsgSomethingWrong:   "حدث خطأ ما، يرجى المحاولة مرة أخرى.",
		MsgInvalidBody:      "محتوى الطلب غير صالح.",
		MsgInvalidID:        "معرف غير صالح.",
		MsgInvalidLogin:     "البريد الإلكتروني أو كلمة المرور غير صحيحة.",
		MsgEmailTaken:       "هذا البريد الإلكتروني مسجل مسبقا.",
		MsgUserCreated:      "تم إنشاء المستخدم.",
		MsgLoggedIn:         "تم تسجيل الدخول.",
	},
}

// Locale picks the best supported locale for an Accept-Language header.
// fallback (usually the school's default locale) is used when the header is
// empty or matches nothing; English when fallback is unsupported too.
func Locale(acceptLanguage, fallback string) string {
	if acceptLanguage != "" {
		tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
		if err == nil && len(tags) > 0 {
			_, idx, conf := matcher.Match(tags...)
			if conf != language.No {
				return base(supported[idx])
			}
		}
	}
	if _, ok := catalog[fallback]; ok {
		return fallback
	}
	return "en"
}

// T returns the message for key in locale, falling back to English and then
// to the key itself.
func T(locale, key string) string {
	if msg, ok := catalog[locale][key]; ok {
		return msg
	}
	if msg, ok := catalog["en"][key]; ok {
		return msg
	}
	return key
}

// Localize is Locale followed by T.
func Localize(acceptLanguage, fallback, key string) string {
	return T(Locale(acceptLanguage, fallback), key)
}

func base(tag language.Tag) string {
	b, _ := tag.Base()
	return b.String()
}
