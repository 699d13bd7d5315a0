package assistantService

import "fmt"

// Canned Arabic replies spoken back to the user. Kept in one place so the
// copywriting can change without touching dispatch logic.
const (
	msgGreeting = "مرحباً! أنا مساعدك الصوتي لإدارة معرض السيارات. كيف يمكنني مساعدتك؟"

	msgAddVehicle = "حسناً، فتحت لك نموذج إضافة سيارة جديدة. يرجى تعبئة البيانات."

	msgSearchNotFound = "لم أجد أي سيارة مطابقة لبحثك عن \"%s\"."
	msgSearchFound    = "وجدت %d سيارة مطابقة لبحثك عن \"%s\"."

	msgSellFound    = "وجدت السيارة برقم الهيكل %s. فتحت لك نموذج تأكيد البيع."
	msgSellNotFound = "لم أجد سيارة برقم الهيكل %s في المخزون."

	msgDeleteFound    = "وجدت السيارة برقم الهيكل %s. فتحت لك نموذج تأكيد الحذف."
	msgDeleteNotFound = "لم أجد سيارة برقم الهيكل %s في المخزون."

	msgExtractChassis = "يرجى رفع صورة واضحة لرقم الهيكل وسأقوم باستخراجه لك."

	msgStats = "لديك %d سيارة في المخزون: %d متوفرة و%d مباعة."

	msgGenericDone = "تم تنفيذ طلبك."

	msgApology = "عذراً، حدث خطأ أثناء معالجة طلبك. يرجى المحاولة مرة أخرى."

	msgChassisExtracted  = "تم استخراج رقم الهيكل من الصورة: %s"
	msgChassisNotVisible = "لم أتمكن من العثور على رقم هيكل واضح في الصورة. يرجى تجربة صورة أوضح."
)

func searchReply(count int, term string) string {
	if count == 0 {
		return fmt.Sprintf(msgSearchNotFound, term)
	}
	return fmt.Sprintf(msgSearchFound, count, term)
}
