package db

// schemaSQL defines the chunk and collection tables. The single %d verb is
// the HNSW embedding dimension.
const schemaSQL = `
    -- ==========================================================================
    -- COLLECTION TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS collection SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS name ON collection TYPE string;
    DEFINE FIELD IF NOT EXISTS created_at ON collection TYPE datetime DEFAULT time::now();
    DEFINE INDEX IF NOT EXISTS collection_name ON collection FIELDS name UNIQUE;

    -- ==========================================================================
    -- CHUNK TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS chunk SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS chunk_id ON chunk TYPE string;
    DEFINE FIELD IF NOT EXISTS collection ON chunk TYPE string;
    DEFINE FIELD IF NOT EXISTS source ON chunk TYPE string;
    DEFINE FIELD IF NOT EXISTS text ON chunk TYPE string;
    DEFINE FIELD IF NOT EXISTS header_path ON chunk TYPE array<string>;
    DEFINE FIELD IF NOT EXISTS position ON chunk TYPE int;
    DEFINE FIELD IF NOT EXISTS word_count ON chunk TYPE int;
    DEFINE FIELD IF NOT EXISTS embedding ON chunk TYPE array<float>;
    DEFINE FIELD IF NOT EXISTS created_at ON chunk TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS chunk_collection ON chunk FIELDS collection;
    DEFINE INDEX IF NOT EXISTS chunk_source ON chunk FIELDS collection, source;
    DEFINE INDEX IF NOT EXISTS chunk_embedding ON chunk FIELDS embedding HNSW DIMENSION %d DIST COSINE TYPE F32;

    -- ==========================================================================
    -- JOB TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS job SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS task_id ON job TYPE string;
    DEFINE FIELD IF NOT EXISTS source ON job TYPE string;
    DEFINE FIELD IF NOT EXISTS collection ON job TYPE string;
    DEFINE FIELD IF NOT EXISTS status ON job TYPE string;
    DEFINE FIELD IF NOT EXISTS progress ON job TYPE float;
    DEFINE FIELD IF NOT EXISTS chunks_processed ON job TYPE int;
    DEFINE FIELD IF NOT EXISTS total_chunks ON job TYPE int;
    DEFINE FIELD IF NOT EXISTS total_chars ON job TYPE int;
    DEFINE FIELD IF NOT EXISTS error_message ON job TYPE string;
    DEFINE FIELD IF NOT EXISTS created_at ON job TYPE datetime;
    DEFINE FIELD IF NOT EXISTS updated_at ON job TYPE datetime;

    DEFINE INDEX IF NOT EXISTS job_status ON job FIELDS status;
`
