package hype

// Phrases back the hype button.
var Phrases = []string{
	"DO IT FOR THE PLOT.",
	"PAIN IS TEMPORARY. REGRET IS FOREVER.",
	"THEY SAID YOU COULDN'T.",
	"LOCK IN.",
	"BE UNAVOIDABLE.",
	"EXECUTE.",
	"DON'T STOP WHEN YOU'RE TIRED.",
	"SCARE THEM WITH YOUR SUCCESS.",
	"NO EXCUSES.",
	"PURE EFFORT.",
	"WIN THE DAY.",
	"STAY DANGEROUS.",
	"BE THE GLITCH IN THE SYSTEM.",
	"OBSESSION OVER TALENT.",
	"DISCIPLINE IS FREEDOM.",
	"EMBRACE THE GRIND.",
	"SILENCE THE DOUBT.",
	"MOVE MOUNTAINS.",
	"BE RELENTLESS.",
	"OUTWORK EVERYONE.",
	"PROVE THEM WRONG.",
	"MAKE IT HAPPEN.",
	"NO RETREAT.",
	"NO SURRENDER.",
	"STAY HUNGRY.",
	"CHASE GREATNESS.",
	"BE THE STORM.",
	"ACTION OVER WORDS.",
	"LIMITS ARE LIES.",
	"GRIT OVER GIFT.",
	"RISE AND GRIND.",
	"KEEP PUSHING.",
	"NEVER SETTLE.",
	"CONQUER FROM WITHIN.",
	"MASTER YOURSELF.",
	"DO THE WORK.",
	"RESULTS, NOT EXCUSES.",
	"BE UNSTOPPABLE.",
	"FUEL THE FIRE.",
	"DEFY THE ODDS.",
	"BECOME A LEGEND.",
	"OWN THE MOMENT.",
	"CRUSH YOUR GOALS.",
	"STAY CONSISTENT.",
	"THE ONLY WAY OUT IS THROUGH.",
	"BREAK THE CYCLE.",
	"CREATE YOUR DESTINY.",
	"FOCUS ON THE PRIZE.",
	"NEVER BACK DOWN.",
	"DOMINATE THE DAY.",
	"MAKE YOUR MARK.",
}

// DefaultPhrase is shown before the first press.
const DefaultPhrase = "SCARE THEM WITH YOUR SUCCESS."

// LockInWords rotate every few seconds during a lock-in session.
var LockInWords = []string{
	"ELIMINATE DISTRACTIONS", "STAY FOCUSED", "THE CLOCK IS TICKING",
	"YOU ARE CAPABLE", "THE GRIND NEVER STOPS", "BE UNSTOPPABLE",
	"FOCUS. EXECUTE. REPEAT.", "YOUR FUTURE SELF IS WATCHING",
	"DON'T QUIT", "LOCK IN", "YOU HAVE THE POWER", "PROVE THEM WRONG",
	"ONE MORE REP", "PURE DISCIPLINE", "YOU CAN DO THIS", "YOU ARE NOT ALONE",
	"KEEP GOING", "PUSH HARDER", "NO EXCUSES", "STAY HUNGRY", "MIND OVER MATTER",
	"EMBRACE THE STRUGGLE", "WORK IN SILENCE", "CHASE GREATNESS", "BEYOND LIMITS", "WIN THE DAY",
	"STAY CONSISTENT", "DISCIPLINE OVER MOTIVATION", "MAKE IT HAPPEN", "RISE AND GRIND", "FINISH STRONG",
	"NO RETREAT", "NO SURRENDER", "BE RELENTLESS", "OWN YOUR TIME", "STAY SHARP",
	"DO IT NOW", "BREAK THE CYCLE", "STAY DRIVEN", "OBSESSED WITH SUCCESS",
	"NEVER BACK DOWN", "SHOW UP", "OUTWORK EVERYONE", "STAY CRITICAL",
	"MASTER YOUR MIND", "BE THE EXCEPTION", "HARD WORK PAYS OFF", "CRUSH YOUR GOALS", "STAY HUMBLE",
	"BE FEARLESS", "PUSH THROUGH", "STAY ON TRACK", "KEEP MOVING", "DON'T LOOK BACK",
	"STAY COMMITTED", "ONE STEP AT A TIME", "DO THE WORK", "REACH HIGHER", "BE LEGENDARY",
}

// EmpowermentWords rotate at half the lock-in word rate.
var EmpowermentWords = []string{
	"YOU HAVE THE STRENGTH",
	"NOTHING CAN STOP YOU",
	"YOU ARE THE MASTER OF YOUR FATE",
	"CONQUER YOUR BOUNDARIES",
	"SUCCESS IS EARNED",
	"YOUR WILL IS UNBENDING",
	"YOU ARE THE ARCHITECT OF YOUR FUTURE",
	"BELIEVE IN YOUR POTENTIAL",
	"YOU ARE STRONGER THAN YOU THINK",
	"RISE ABOVE THE NOISE",
	"YOU OWN THIS MOMENT",
	"CLAIM YOUR VICTORY",
	"TURN YOUR PAIN INTO POWER",
	"EVERY STEP COUNTS",
	"YOU ARE A FORCE OF NATURE",
	"TRUST THE PROCESS",
	"YOUR TIME IS NOW",
	"FOCUS ON THE VISION",
	"YOU HAVE WHAT IT TAKES",
	"YOU ARE DESTINED FOR GREATNESS",
}
