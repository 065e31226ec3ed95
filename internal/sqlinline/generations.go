package sqlinline

const QCreateGenerationsTable = `--sql 3b9c4d7e-51a2-4f0e-9c61-8d2e7a4b1f05
create table if not exists generations (
  id text primary key,
  marketing_description text not null,
  image_prompt text not null,
  model text not null default '',
  images jsonb not null default '[]'::jsonb,
  created_at timestamptz not null
);
`

const QCreateGenerationsCreatedAtIndex = `--sql 9e07f6a1-2c3d-4b58-a1e4-6f0b9d2c7a13
create index if not exists generations_created_at_idx on generations (created_at desc);
`

const QInsertGeneration = `--sql c41d2a90-7f3e-4a6b-b8d5-02e9f1c6a7b4
insert into generations (id, marketing_description, image_prompt, model, images, created_at)
values ($1, $2, $3, $4, $5::jsonb, $6)
on conflict (id) do update set
  marketing_description = excluded.marketing_description,
  image_prompt = excluded.image_prompt,
  model = excluded.model,
  images = excluded.images,
  created_at = excluded.created_at;
`

const QListRecentGenerations = `--sql 5f8a3e12-d6b4-4c7a-9e20-b1c3d4e5f607
select id, marketing_description, image_prompt, model, images, created_at
from generations
order by created_at desc
limit $1::int;
`

const QSelectGenerationByID = `--sql 0a6e9b3c-4d1f-4e82-a7c5-93b8d2f1e046
select id, marketing_description, image_prompt, model, images, created_at
from generations
where id = $1
limit 1;
`
