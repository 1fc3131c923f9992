package service

func (s *Service) SessionCount() int {
	return s.carts.size()
}

func (s *Service) EvictIdleSessions() int {
	return s.carts.evictIdle()
}
