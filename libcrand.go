package mipsrt

// libcStream is the additive feedback generator behind glibc's random() and
// rand(): x[i] = x[i-3] + x[i-31] mod 2^32, output x[i] >> 1. The state is
// a ring of 31 words with the front pointer three ahead of the rear one.
type libcStream struct {
	state [libcDegree]int32
	front int
	rear  int
}

const (
	libcDegree = 31
	libcSep    = 3
)

// NewLibcStream returns a generator producing the same sequence as the C
// library's rand() after srand(seed). Seed 1 is what a C program gets when
// it never calls srand; seed 0 behaves like 1.
func NewLibcStream(seed uint32) RandomStream {
	s := &libcStream{}
	s.seed(seed)
	return s
}

func (s *libcStream) seed(seed uint32) {
	if seed == 0 {
		seed = 1
	}
	s.state[0] = int32(seed)
	word := int32(seed)
	for i := 1; i < libcDegree; i++ {
		// 16807 * word % (2^31 - 1) without overflowing 32 bits
		hi := word / 127773
		lo := word % 127773
		word = 16807*lo - 2836*hi
		if word < 0 {
			word += 2147483647
		}
		s.state[i] = word
	}
	s.front = libcSep
	s.rear = 0
	for i := 0; i < 10*libcDegree; i++ {
		s.Int31()
	}
}

func (s *libcStream) Int31() int32 {
	v := uint32(s.state[s.front]) + uint32(s.state[s.rear])
	s.state[s.front] = int32(v)
	s.front = (s.front + 1) % libcDegree
	s.rear = (s.rear + 1) % libcDegree
	return int32(v >> 1)
}
