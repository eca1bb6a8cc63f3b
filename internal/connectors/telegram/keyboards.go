package telegram

import "github.com/go-telegram/bot/models"

// Callback data values carried by inline buttons.
const (
	cbContinue = "session:continue"
	cbExit     = "session:exit"
	cbBack     = "nav:back"

	cbScreenLoans    = "screen:prestamos"
	cbScreenPayments = "screen:pagos"
	cbScreenProfile  = "screen:perfil"
)

// User-facing copy. The audience is Spanish-speaking; keep it that way.
const (
	msgWelcome = "¡Hola! Soy el asistente de PrestaMax. ¿En qué puedo ayudarte?"
	msgMenu    = "Menú principal. Elegí una opción:"
	msgHelp    = "Comandos disponibles:\n" +
		"/menu - menú principal\n" +
		"/dni - corregir tu DNI\n" +
		"/salir - cerrar la sesión\n" +
		"/ayuda - este mensaje"
	msgUseMenu         = "No entendí eso. Usá el menú o escribí /ayuda para ver los comandos."
	msgUnknownCommand  = "Comando desconocido. Escribí /ayuda para ver los comandos disponibles."
	msgNoActiveSession = "No hay una sesión activa. Escribí /start para comenzar."

	msgInactivityWarning = "¿Seguís ahí? La sesión se cerrará pronto por inactividad."
	msgWarnedLockout     = "La sesión está por cerrarse. Tocá «Continuar» para seguir o «Salir» para terminar."
	msgSessionExpired    = "La sesión se cerró por inactividad. Tocá /start cuando quieras volver."
	msgFarewell          = "¡Gracias por usar PrestaMax! Hasta pronto."
	msgContinued         = "¡Perfecto, seguimos! Tu sesión sigue activa."

	msgAskDNI     = "Escribí tu DNI (8 dígitos, sin puntos):"
	msgInvalidDNI = "Ese DNI no parece válido. Tiene que ser un número de 8 dígitos."
	msgDNISaved   = "Listo, tu DNI quedó actualizado."

	msgScreenLoans     = "Tus préstamos activos aparecen acá. Elegí uno para ver el detalle."
	msgScreenPayments  = "Acá podés ver tus próximos vencimientos y pagar una cuota."
	msgScreenProfile   = "Tu perfil: datos de contacto y documento."
	msgNothingToGoBack = "Ya estás en la pantalla principal."
)

// Button labels.
const (
	btnContinue = "✅ Continuar"
	btnExit     = "🚪 Salir"
	btnBack     = "⬅️ Volver"
	btnLoans    = "💰 Mis préstamos"
	btnPayments = "📅 Pagos"
	btnProfile  = "👤 Mi perfil"
	btnRestart  = "/start"
)

// warningKeyboard is the inline continue/exit prompt attached to the
// inactivity warning.
func warningKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: btnContinue, CallbackData: cbContinue},
				{Text: btnExit, CallbackData: cbExit},
			},
		},
	}
}

// restartKeyboard is a one-tap way back in after the session ends.
func restartKeyboard() *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{
			{{Text: btnRestart}},
		},
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}
}

// menuKeyboard is the main screen selector.
func menuKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: btnLoans, CallbackData: cbScreenLoans},
				{Text: btnPayments, CallbackData: cbScreenPayments},
			},
			{
				{Text: btnProfile, CallbackData: cbScreenProfile},
			},
		},
	}
}

// backKeyboard is attached to every non-root screen.
func backKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: btnBack, CallbackData: cbBack}},
		},
	}
}
