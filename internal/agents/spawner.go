// Actor spawning: issues ids and seeds for the starting population and for
// actors spawned on demand later.
package agents

// DefaultSeedBase is added to an actor's id to form its seed.
const DefaultSeedBase int64 = 50000

// Spawner creates actors with sequential ids.
type Spawner struct {
	seedBase int64
	nextID   ActorID
}

// NewSpawner creates a spawner. Actor n gets seed seedBase+n.
func NewSpawner(seedBase int64) *Spawner {
	return &Spawner{
		seedBase: seedBase,
		nextID:   1,
	}
}

// SetNextID sets the next actor ID to be issued (used when restoring from DB).
func (s *Spawner) SetNextID(id ActorID) {
	s.nextID = id
}

// NextID returns the id the next spawned actor will get.
func (s *Spawner) NextID() ActorID { return s.nextID }

// SeedBase returns the base added to actor ids to form seeds.
func (s *Spawner) SeedBase() int64 { return s.seedBase }

// Spawn creates one actor on a body.
func (s *Spawner) Spawn(bodyID int) *Actor {
	id := s.nextID
	s.nextID++
	return NewActor(id, bodyID, s.seedBase+int64(id))
}

// SpawnPopulation creates a batch of actors on a body.
func (s *Spawner) SpawnPopulation(count int, bodyID int) []*Actor {
	actors := make([]*Actor, 0, max(count, 0))
	for i := 0; i < count; i++ {
		actors = append(actors, s.Spawn(bodyID))
	}
	return actors
}
