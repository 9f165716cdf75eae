package mock

var comments = []string{
	"Tenés una facha que no se puede explicar con palabras, pero lo vamos a intentar.",
	"La cámara te quiere, aunque a veces se hace la difícil.",
	"Esa mirada dice 'tengo todo bajo control', aunque no sepas dónde dejaste las llaves.",
	"Facha de domingo a la tarde: relajada, confiada y con un mate cerca.",
	"Hay onda, hay actitud, falta solamente que el fondo acompañe.",
	"Si la facha fuera una moneda, estarías cotizando en alza.",
}

var strengths = []string{
	"Sonrisa con poder de convencimiento",
	"Postura segura",
	"Buena elección de luz",
	"Mirada magnética",
	"Peinado con personalidad",
	"Outfit que suma puntos",
	"Ángulo bien elegido",
	"Expresión natural",
}

var advice = []string{
	"Probá con luz natural de frente",
	"Limpiá un poco el fondo",
	"Relajá los hombros",
	"Subí la cámara a la altura de los ojos",
	"Animate a una sonrisa más grande",
	"Cuidá el encuadre, te están cortando la frente",
	"Menos filtro, más vos",
	"Elegí colores que contrasten con el fondo",
}

var battleComments = []string{
	"Fue una batalla pareja, pero la facha no perdona.",
	"Los dos vinieron a ganar, solo uno se lleva la corona.",
	"Duelo de titanes. El jurado deliberó poco.",
	"Ninguno se guardó nada, pero hubo un claro favorito.",
}

var enhanceComments = []string{
	"Modo offline: tu foto ya venía con facha de fábrica.",
	"No pudimos retocarla, pero tampoco hacía tanta falta.",
	"La versión mejorada de esta foto sos vos en persona.",
}
