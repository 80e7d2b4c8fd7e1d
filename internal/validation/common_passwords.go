package validation

var commonPasswords = toSet(
	"password", "password1", "password12", "password123", "password1234",
	"passw0rd", "p@ssw0rd", "p@ssword", "pass1234", "letmein", "letmein1",
	"welcome", "welcome1", "welcome123", "qwerty", "qwerty12", "qwerty123",
	"qwertyuiop", "asdfghjk", "asdfghjkl", "zxcvbnm1", "1q2w3e4r", "1q2w3e4r5t",
	"12345678", "123456789", "1234567890", "87654321", "11111111", "00000000",
	"abcd1234", "abc12345", "abcdefgh", "iloveyou", "iloveyou1", "princess",
	"sunshine", "football", "baseball", "basketball", "superman", "batman123",
	"trustno1", "dragon12", "master12", "monkey12", "shadow12", "michael1",
	"jennifer", "jordan23", "starwars", "whatever", "computer", "internet",
	"changeme", "secret12", "admin123", "administrator", "login123", "freedom1",
	"charlie1", "hello123", "helloworld", "liverpool", "chelsea1", "arsenal1",
	"mustang1", "access14", "killer12", "summer2024", "winter2024", "spring2024",
	"autumn2024", "fitness", "fitness1", "fitness123", "workout1", "gym12345",
	"muscle12", "strong12", "runner12", "bodybuilding", "crossfit",
)

func toSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
